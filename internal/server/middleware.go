package server

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/metrics"
)

const (
	sessionContextKey = "session"

	// nextParam carries the originally requested path to the login page
	nextParam = "next"
)

// GuardResult is the outcome of a route guard decision
type GuardResult string

const (
	GuardAllow    GuardResult = "allow"
	GuardRedirect GuardResult = "redirect"
)

// Reasons recorded with each guard decision
const (
	ReasonUnprotected    = "unprotected"
	ReasonLocalHost      = "local_host"
	ReasonStaticAsset    = "static_asset"
	ReasonLoginPage      = "login_page"
	ReasonMissingSession = "missing_session"
	ReasonInvalidSession = "invalid_session"
	ReasonValidSession   = "valid_session"
)

// GuardConfig parameterizes the route guard
type GuardConfig struct {
	// ProtectedPrefix is matched per path segment: "/admin" covers "/admin"
	// and "/admin/..." but not "/administrator".
	ProtectedPrefix string

	// LoginPath renders the sign-in form. Defaults to ProtectedPrefix.
	LoginPath string

	// ExcludedPrefixes are static asset paths under the protected prefix.
	// Defaults to ProtectedPrefix+"/_next" and ProtectedPrefix+"/static".
	ExcludedPrefixes []string

	// LocalHostnames bypass authentication entirely
	LocalHostnames []string

	// PublicURL, when set, makes redirect targets absolute
	PublicURL string
}

// GuardDecision describes what the guard does with one request
type GuardDecision struct {
	Result   GuardResult
	Reason   string
	Session  *auth.Session
	Location string
}

// RouteGuard gates the protected path set. It holds no per-request state.
type RouteGuard struct {
	cfg     GuardConfig
	local   map[string]struct{}
	codec   *auth.TokenCodec
	cookies auth.CookiePolicy
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRouteGuard creates a guard for the given configuration
func NewRouteGuard(cfg GuardConfig, codec *auth.TokenCodec, cookies auth.CookiePolicy, log zerolog.Logger, m *metrics.Metrics) *RouteGuard {
	if cfg.ProtectedPrefix == "" {
		cfg.ProtectedPrefix = "/admin"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = cfg.ProtectedPrefix
	}
	if cfg.ExcludedPrefixes == nil {
		cfg.ExcludedPrefixes = []string{
			cfg.ProtectedPrefix + "/_next",
			cfg.ProtectedPrefix + "/static",
		}
	}

	local := make(map[string]struct{}, len(cfg.LocalHostnames))
	for _, h := range cfg.LocalHostnames {
		local[strings.ToLower(h)] = struct{}{}
	}

	return &RouteGuard{
		cfg:     cfg,
		local:   local,
		codec:   codec,
		cookies: cookies,
		logger:  log,
		metrics: m,
	}
}

// LoginPath returns the path of the sign-in page
func (g *RouteGuard) LoginPath() string {
	return g.cfg.LoginPath
}

// Protects reports whether path falls under the protected prefix
func (g *RouteGuard) Protects(path string) bool {
	return hasPathPrefix(path, g.cfg.ProtectedPrefix)
}

// Decide runs the guard procedure for one request. The order of the checks
// matters: the local hostname bypass is consulted before any session check.
// All checks run on the cleaned path, so dot segments cannot climb out of an
// asset prefix.
func (g *RouteGuard) Decide(r *http.Request) GuardDecision {
	path := cleanPath(r.URL.Path)

	if !g.Protects(path) {
		return GuardDecision{Result: GuardAllow, Reason: ReasonUnprotected}
	}

	if _, ok := g.local[requestHostname(r)]; ok {
		return GuardDecision{Result: GuardAllow, Reason: ReasonLocalHost}
	}

	for _, prefix := range g.cfg.ExcludedPrefixes {
		if hasPathPrefix(path, prefix) {
			return GuardDecision{Result: GuardAllow, Reason: ReasonStaticAsset}
		}
	}

	if path == g.cfg.LoginPath {
		return GuardDecision{Result: GuardAllow, Reason: ReasonLoginPage}
	}

	token := ""
	if cookie, err := r.Cookie(g.cookies.Name); err == nil {
		token = cookie.Value
	}
	if token == "" {
		return GuardDecision{Result: GuardRedirect, Reason: ReasonMissingSession, Location: g.loginRedirect(path)}
	}

	session := g.codec.Verify(token)
	if session == nil {
		return GuardDecision{Result: GuardRedirect, Reason: ReasonInvalidSession, Location: g.loginRedirect(path)}
	}

	return GuardDecision{Result: GuardAllow, Reason: ReasonValidSession, Session: session}
}

// Middleware applies Decide to every request
func (g *RouteGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Decide(c.Request)
		if decision.Reason != ReasonUnprotected {
			g.metrics.GuardDecision(string(decision.Result), decision.Reason)
		}

		if decision.Result == GuardRedirect {
			g.logger.Debug().
				Str("path", c.Request.URL.Path).
				Str("reason", decision.Reason).
				Msg("Redirecting to admin login")
			c.Redirect(http.StatusSeeOther, decision.Location)
			c.Abort()
			return
		}

		if decision.Session != nil {
			setSession(c, decision.Session)
		}

		c.Next()
	}
}

// loginRedirect builds the login URL carrying the requested path as a hint
func (g *RouteGuard) loginRedirect(requested string) string {
	u := url.URL{Path: g.cfg.LoginPath}
	q := url.Values{}
	q.Set(nextParam, requested)
	u.RawQuery = q.Encode()
	return joinPublicURL(g.cfg.PublicURL, u.String())
}

func setSession(c *gin.Context, session *auth.Session) {
	c.Set(sessionContextKey, session)
}

// GetSession returns the verified session the guard attached to the request
func GetSession(c *gin.Context) (*auth.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}

	session, ok := value.(*auth.Session)
	return session, ok
}

// requestHostname returns the lowercased request host without port
func requestHostname(r *http.Request) string {
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return strings.ToLower(host)
}

// cleanPath resolves dot segments and duplicate slashes, keeping a trailing slash
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	cleaned := path.Clean(p)
	if cleaned != "/" && strings.HasSuffix(p, "/") {
		cleaned += "/"
	}
	return cleaned
}

// hasPathPrefix matches prefix on path segment boundaries
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func joinPublicURL(publicURL, path string) string {
	if publicURL == "" {
		return path
	}
	return strings.TrimRight(publicURL, "/") + path
}
