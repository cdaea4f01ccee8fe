package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/shopfront-dev/shopfront/internal/identity"
	"github.com/shopfront-dev/shopfront/internal/metrics"
)

// maxLoginBodyBytes bounds the login body; credentials fit well within it
const maxLoginBodyBytes = 16 << 10

// LoginRequest represents a login request, submitted as JSON or as a form
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next"     form:"next"`
}

// bindLoginRequest reads credentials from a JSON or form body. Without a
// recognizable content type it tries JSON first, then form encoding.
// Malformed or oversized bodies leave the fields empty.
func bindLoginRequest(c *gin.Context) (LoginRequest, bool) {
	var req LoginRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLoginBodyBytes)

	switch c.ContentType() {
	case binding.MIMEJSON:
		if err := c.ShouldBindJSON(&req); err != nil {
			return LoginRequest{}, true
		}
		return req, true
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		if err := c.ShouldBindWith(&req, binding.Form); err != nil {
			return LoginRequest{}, false
		}
		return req, false
	}

	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		return req, false
	}
	if err := json.Unmarshal(body, &req); err == nil {
		return req, true
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return LoginRequest{}, false
	}
	req.Username = values.Get("username")
	req.Password = values.Get("password")
	req.Next = values.Get("next")
	return req, false
}

// @Summary Login
// @Description Check admin credentials with the identity service and start a session
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{}
// @Success 303
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/login [post]
func (s *Server) login(c *gin.Context) {
	req, jsonBody := bindLoginRequest(c)
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		s.metrics.LoginAttempt(metrics.LoginBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing credentials"})
		return
	}

	if !s.identityConfigured {
		s.logger.Error().Msg("Admin login rejected: identity service base URL is not configured")
		s.metrics.LoginAttempt(metrics.LoginMisconfigured)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server not configured"})
		return
	}

	start := time.Now()
	err := s.identity.CheckCredentials(c.Request.Context(), req.Username, req.Password)
	s.metrics.ObserveIdentityCall(time.Since(start))

	switch {
	case err == nil:
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.logger.Info().Str("username", req.Username).Msg("Admin login rejected by identity service")
		s.metrics.LoginAttempt(metrics.LoginInvalid)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	case errors.Is(err, identity.ErrNotConfigured):
		s.logger.Error().Err(err).Msg("Identity service is misconfigured")
		s.metrics.LoginAttempt(metrics.LoginMisconfigured)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server not configured"})
		return
	default:
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Identity service call failed")
		s.metrics.LoginAttempt(metrics.LoginUnavailable)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Auth service unavailable"})
		return
	}

	token, err := s.codec.Mint(req.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to mint session token")
		s.metrics.LoginAttempt(metrics.LoginInternalFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	s.cookies.Set(c, token)
	s.metrics.LoginAttempt(metrics.LoginSuccess)
	s.logger.Info().Str("username", req.Username).Msg("Admin logged in")

	responderFor(c, jsonBody).Respond(c, s.absoluteURL(s.postLoginPath(req.Next)))
}

// postLoginPath revalidates the return hint: only relative paths inside the
// protected section are honored.
func (s *Server) postLoginPath(next string) string {
	landing := s.guard.LoginPath()
	if next == "" || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return landing
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !s.guard.Protects(u.Path) {
		return landing
	}
	if strings.Contains(u.Path, "/../") || strings.HasSuffix(u.Path, "/..") {
		return landing
	}

	return u.RequestURI()
}

// @Summary Logout
// @Description Clear the admin session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 303
// @Router /api/logout [post]
// @Router /api/logout [get]
func (s *Server) logout(c *gin.Context) {
	notify := "skipped"

	// Best effort; the local cookie is cleared whatever the outcome
	if session := s.codec.Verify(s.cookies.Read(c)); session != nil && s.identityConfigured {
		if err := s.identity.NotifyLogout(c.Request.Context(), session.Subject); err != nil {
			s.logger.Warn().Err(err).Str("username", session.Subject).Msg("Failed to notify identity service of logout")
			notify = "failed"
		} else {
			notify = "ok"
		}
		s.logger.Info().Str("username", session.Subject).Msg("Admin logged out")
	}

	s.cookies.Clear(c)
	s.metrics.Logout(notify)

	responderFor(c, false).Respond(c, s.absoluteURL(publicLandingPath))
}

// @Summary Session status
// @Description Report whether the request carries a valid admin session
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/session [get]
func (s *Server) sessionStatus(c *gin.Context) {
	token := s.cookies.Read(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	session := s.codec.Verify(token)
	if session == nil {
		// Stale or forged cookie, drop it
		s.cookies.Clear(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user": gin.H{
			"username": session.Subject,
			"role":     session.Role,
		},
		"expires_at": session.ExpiresAt.UTC(),
	})
}
