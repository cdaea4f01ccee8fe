// Package metrics exposes Prometheus counters for the admin session flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopfront"

// Login outcomes
const (
	LoginSuccess        = "success"
	LoginBadRequest     = "bad_request"
	LoginInvalid        = "invalid_credentials"
	LoginUnavailable    = "unavailable"
	LoginMisconfigured  = "misconfigured"
	LoginInternalFailed = "internal_error"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	loginAttempts    *prometheus.CounterVec
	identityDuration prometheus.Histogram
	guardDecisions   *prometheus.CounterVec
	logouts          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by outcome",
		}, []string{"outcome"}),

		identityDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "identity_request_duration_seconds",
			Help:      "Latency of credential checks against the identity service",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Admin route guard decisions by result and reason",
		}, []string{"result", "reason"}),

		logouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Logouts by upstream notification result",
		}, []string{"notify"}),

		gatherer: reg,
	}
}

// LoginAttempt counts one login attempt
func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveIdentityCall records the duration of one identity service call
func (m *Metrics) ObserveIdentityCall(d time.Duration) {
	if m == nil {
		return
	}
	m.identityDuration.Observe(d.Seconds())
}

// GuardDecision counts one route guard decision
func (m *Metrics) GuardDecision(result, reason string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(result, reason).Inc()
}

// Logout counts one logout; notify is "ok", "failed" or "skipped"
func (m *Metrics) Logout(notify string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(notify).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
