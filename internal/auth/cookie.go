package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName is the name of the admin session cookie
	CookieName = "admin_session"
)

// CookieAttributes describes the attributes every session cookie is written with
type CookieAttributes struct {
	HTTPOnly      bool          `json:"http_only"`
	Secure        bool          `json:"secure"`
	SameSite      http.SameSite `json:"same_site"`
	Path          string        `json:"path"`
	MaxAgeSeconds int           `json:"max_age_seconds"`
}

// CookiePolicy is shared by login and logout so that set and clear agree on
// name, path and flags.
type CookiePolicy struct {
	Name   string
	Path   string
	Secure bool
	MaxAge time.Duration
}

// DefaultCookiePolicy returns the admin session cookie policy. Secure is only
// set in production so local development over plain HTTP keeps working.
func DefaultCookiePolicy(production bool) CookiePolicy {
	return CookiePolicy{
		Name:   CookieName,
		Path:   "/",
		Secure: production,
		MaxAge: SessionLifetime,
	}
}

// Attributes returns the cookie attribute contract
func (p CookiePolicy) Attributes() CookieAttributes {
	return CookieAttributes{
		HTTPOnly:      true,
		Secure:        p.Secure,
		SameSite:      http.SameSiteLaxMode,
		Path:          p.Path,
		MaxAgeSeconds: int(p.MaxAge / time.Second),
	}
}

// Set writes the session cookie carrying token
func (p CookiePolicy) Set(c *gin.Context, token string) {
	http.SetCookie(c.Writer, p.cookie(token, p.Attributes().MaxAgeSeconds))
}

// Clear expires the session cookie immediately
func (p CookiePolicy) Clear(c *gin.Context) {
	cookie := p.cookie("", -1) // serialized as Max-Age=0
	cookie.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(c.Writer, cookie)
}

// Read returns the session cookie value, or "" when absent
func (p CookiePolicy) Read(c *gin.Context) string {
	value, err := c.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return value
}

func (p CookiePolicy) cookie(value string, maxAge int) *http.Cookie {
	attrs := p.Attributes()
	return &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Path:     attrs.Path,
		MaxAge:   maxAge,
		HttpOnly: attrs.HTTPOnly,
		Secure:   attrs.Secure,
		SameSite: attrs.SameSite,
	}
}
