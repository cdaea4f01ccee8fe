package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfront-dev/shopfront/internal/auth"
)

// currentSession returns the session attached by the guard, falling back to
// verifying the cookie for paths the guard lets through unchecked.
func (s *Server) currentSession(c *gin.Context) *auth.Session {
	if session, ok := GetSession(c); ok {
		return session
	}
	return s.codec.Verify(s.cookies.Read(c))
}

// @Summary Admin landing page
// @Description Sign-in form for anonymous visitors, dashboard for signed-in admins
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin [get]
func (s *Server) adminLanding(c *gin.Context) {
	session := s.currentSession(c)
	if session == nil {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"view":          "login",
			"login_url":     "/api/login",
			"next":          c.Query(nextParam),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"view":          "dashboard",
		"user": gin.H{
			"username": session.Subject,
			"role":     session.Role,
		},
		"logout_url": "/api/logout",
	})
}

// adminSection answers for admin sub-pages the guard allowed. Anything
// outside the protected prefix is a plain 404.
func (s *Server) adminSection(c *gin.Context) {
	if !s.guard.Protects(cleanPath(c.Request.URL.Path)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	resp := gin.H{
		"path":          c.Request.URL.Path,
		"authenticated": false,
	}
	if session := s.currentSession(c); session != nil {
		resp["authenticated"] = true
		resp["user"] = gin.H{
			"username": session.Subject,
			"role":     session.Role,
		}
	}

	c.JSON(http.StatusOK, resp)
}
