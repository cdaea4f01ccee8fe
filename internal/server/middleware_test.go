package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront-dev/shopfront/internal/auth"
)

type guardFixture struct {
	guard   *RouteGuard
	valid   string
	expired string
	foreign string
}

func newGuardFixture(t *testing.T, cfg GuardConfig) guardFixture {
	t.Helper()

	codec, err := auth.NewTokenCodec(testSecret)
	require.NoError(t, err)
	valid, err := codec.Mint("admin")
	require.NoError(t, err)

	past := time.Now().Add(-auth.SessionLifetime - time.Minute)
	oldCodec, err := auth.NewTokenCodec(testSecret, auth.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	expired, err := oldCodec.Mint("admin")
	require.NoError(t, err)

	otherCodec, err := auth.NewTokenCodec("another-secret")
	require.NoError(t, err)
	foreign, err := otherCodec.Mint("admin")
	require.NoError(t, err)

	guard := NewRouteGuard(cfg, codec, auth.DefaultCookiePolicy(false), zerolog.Nop(), nil)
	return guardFixture{guard: guard, valid: valid, expired: expired, foreign: foreign}
}

func guardRequest(host, path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	return req
}

func TestRouteGuard_Decide(t *testing.T) {
	fx := newGuardFixture(t, GuardConfig{
		ProtectedPrefix: "/admin",
		LocalHostnames:  []string{"localhost", "127.0.0.1"},
	})

	tests := []struct {
		name     string
		host     string
		path     string
		token    string
		result   GuardResult
		reason   string
		location string
	}{
		{name: "public page", host: "shop.example.com", path: "/products", result: GuardAllow, reason: ReasonUnprotected},
		{name: "public page with garbage cookie", host: "shop.example.com", path: "/cart", token: "garbage", result: GuardAllow, reason: ReasonUnprotected},
		{name: "similar prefix is public", host: "shop.example.com", path: "/administrator", result: GuardAllow, reason: ReasonUnprotected},
		{name: "root", host: "shop.example.com", path: "/", result: GuardAllow, reason: ReasonUnprotected},
		{name: "localhost bypass", host: "localhost", path: "/admin/orders", result: GuardAllow, reason: ReasonLocalHost},
		{name: "localhost with port", host: "localhost:3000", path: "/admin/orders", result: GuardAllow, reason: ReasonLocalHost},
		{name: "loopback address", host: "127.0.0.1:8080", path: "/admin/customers/42", result: GuardAllow, reason: ReasonLocalHost},
		{name: "localhost wins over invalid cookie", host: "LOCALHOST", path: "/admin/orders", token: "garbage", result: GuardAllow, reason: ReasonLocalHost},
		{name: "next assets", host: "shop.example.com", path: "/admin/_next/static/chunk.js", result: GuardAllow, reason: ReasonStaticAsset},
		{name: "static assets", host: "shop.example.com", path: "/admin/static/logo.svg", result: GuardAllow, reason: ReasonStaticAsset},
		{name: "login page", host: "shop.example.com", path: "/admin", result: GuardAllow, reason: ReasonLoginPage},
		{name: "login page with expired cookie", host: "shop.example.com", path: "/admin", token: fx.expired, result: GuardAllow, reason: ReasonLoginPage},
		{name: "missing cookie", host: "shop.example.com", path: "/admin/orders", result: GuardRedirect, reason: ReasonMissingSession, location: "/admin?next=%2Fadmin%2Forders"},
		{name: "garbage cookie", host: "shop.example.com", path: "/admin/products/A1", token: "garbage", result: GuardRedirect, reason: ReasonInvalidSession, location: "/admin?next=%2Fadmin%2Fproducts%2FA1"},
		{name: "expired cookie", host: "shop.example.com", path: "/admin/orders", token: fx.expired, result: GuardRedirect, reason: ReasonInvalidSession, location: "/admin?next=%2Fadmin%2Forders"},
		{name: "foreign cookie", host: "shop.example.com", path: "/admin/orders", token: fx.foreign, result: GuardRedirect, reason: ReasonInvalidSession, location: "/admin?next=%2Fadmin%2Forders"},
		{name: "admin root with trailing slash", host: "shop.example.com", path: "/admin/", result: GuardRedirect, reason: ReasonMissingSession, location: "/admin?next=%2Fadmin%2F"},
		{name: "valid cookie", host: "shop.example.com", path: "/admin/testimonials", token: fx.valid, result: GuardAllow, reason: ReasonValidSession},
		{name: "dot segments out of static assets", host: "shop.example.com", path: "/admin/static/../orders", result: GuardRedirect, reason: ReasonMissingSession, location: "/admin?next=%2Fadmin%2Forders"},
		{name: "encoded dot segments out of next assets", host: "shop.example.com", path: "/admin/_next/%2e%2e/customers/42", result: GuardRedirect, reason: ReasonMissingSession, location: "/admin?next=%2Fadmin%2Fcustomers%2F42"},
		{name: "dot segments into admin", host: "shop.example.com", path: "/products/../admin/orders", result: GuardRedirect, reason: ReasonMissingSession, location: "/admin?next=%2Fadmin%2Forders"},
		{name: "dot segments within static assets", host: "shop.example.com", path: "/admin/static/img/../logo.svg", result: GuardAllow, reason: ReasonStaticAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := fx.guard.Decide(guardRequest(tt.host, tt.path, tt.token))

			assert.Equal(t, tt.result, decision.Result)
			assert.Equal(t, tt.reason, decision.Reason)
			assert.Equal(t, tt.location, decision.Location)
			if tt.reason == ReasonValidSession {
				require.NotNil(t, decision.Session)
				assert.Equal(t, "admin", decision.Session.Subject)
			} else {
				assert.Nil(t, decision.Session)
			}
		})
	}
}

func TestRouteGuard_PublicPathsIgnoreCookieState(t *testing.T) {
	fx := newGuardFixture(t, GuardConfig{ProtectedPrefix: "/admin"})

	paths := []string{"/", "/products", "/products/SKU-1", "/categories/shoes", "/cart", "/checkout", "/search", "/order-confirmation/42", "/api/login"}
	tokens := []string{"", "garbage", fx.expired, fx.foreign, fx.valid}

	for _, path := range paths {
		for _, token := range tokens {
			decision := fx.guard.Decide(guardRequest("shop.example.com", path, token))
			assert.Equal(t, GuardAllow, decision.Result, "path %s", path)
		}
	}
}

func TestRouteGuard_NoLocalBypassWhenAllowlistEmpty(t *testing.T) {
	fx := newGuardFixture(t, GuardConfig{ProtectedPrefix: "/admin"})

	decision := fx.guard.Decide(guardRequest("localhost:3000", "/admin/orders", ""))
	assert.Equal(t, GuardRedirect, decision.Result)
	assert.Equal(t, ReasonMissingSession, decision.Reason)
}

func TestRouteGuard_PublicURLMakesRedirectAbsolute(t *testing.T) {
	fx := newGuardFixture(t, GuardConfig{
		ProtectedPrefix: "/admin",
		PublicURL:       "https://shop.example.com",
	})

	decision := fx.guard.Decide(guardRequest("internal:8080", "/admin/orders", ""))
	assert.Equal(t, "https://shop.example.com/admin?next=%2Fadmin%2Forders", decision.Location)
}

func TestRouteGuard_Middleware(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	t.Run("redirects without session", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/admin/orders/1001/edit", nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/admin?next=%2Fadmin%2Forders%2F1001%2Fedit", w.Header().Get("Location"))
	})

	t.Run("redirects dot segments leaving the asset prefix", func(t *testing.T) {
		for _, target := range []string{"/admin/static/../orders", "/admin/_next/%2e%2e/customers/42"} {
			w := serve(srv, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusSeeOther, w.Code, target)
			assert.Contains(t, w.Header().Get("Location"), "/admin?next=", target)
		}
	})

	t.Run("allows with valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders/1001/edit", nil)
		req.AddCookie(mintCookie(t, srv, "jane"))
		w := serve(srv, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w.Body)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "jane", body["user"].(map[string]interface{})["username"])
	})

	t.Run("local host passes without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/customers", nil)
		req.Host = "localhost:3000"
		w := serve(srv, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeJSON(t, w.Body)["authenticated"])
	})

	t.Run("login page renders sign-in form", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/admin?next=%2Fadmin%2Forders", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w.Body)
		assert.Equal(t, "login", body["view"])
		assert.Equal(t, "/admin/orders", body["next"])
	})

	t.Run("login page renders dashboard when signed in", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(mintCookie(t, srv, "jane"))
		w := serve(srv, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w.Body)
		assert.Equal(t, "dashboard", body["view"])
		assert.Equal(t, true, body["authenticated"])
	})
}

func TestRequestHostname(t *testing.T) {
	tests := map[string]string{
		"localhost":        "localhost",
		"LocalHost:3000":   "localhost",
		"127.0.0.1:8080":   "127.0.0.1",
		"[::1]:8080":       "::1",
		"shop.example.com": "shop.example.com",
	}

	for host, expected := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		assert.Equal(t, expected, requestHostname(req), "host %q", host)
	}
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":                        "/",
		"/":                       "/",
		"/admin":                  "/admin",
		"/admin/":                 "/admin/",
		"/admin/static/../orders": "/admin/orders",
		"/admin/./orders/":        "/admin/orders/",
		"//admin///orders":        "/admin/orders",
		"/../admin":               "/admin",
		"admin/orders":            "/admin/orders",
	}

	for raw, expected := range tests {
		assert.Equal(t, expected, cleanPath(raw), "path %q", raw)
	}
}

func TestHasPathPrefix(t *testing.T) {
	assert.True(t, hasPathPrefix("/admin", "/admin"))
	assert.True(t, hasPathPrefix("/admin/", "/admin"))
	assert.True(t, hasPathPrefix("/admin/orders", "/admin"))
	assert.False(t, hasPathPrefix("/administrator", "/admin"))
	assert.False(t, hasPathPrefix("/", "/admin"))
	assert.False(t, hasPathPrefix("/shop/admin", "/admin"))
}
