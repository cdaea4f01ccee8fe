package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthResponder shapes the success response of login and logout
type AuthResponder interface {
	Respond(c *gin.Context, target string)
}

// FormRedirectResponder answers traditional form submissions with a 303 so
// the browser follows up with a GET.
type FormRedirectResponder struct{}

func (FormRedirectResponder) Respond(c *gin.Context, target string) {
	c.Redirect(http.StatusSeeOther, target)
}

// JSONAckResponder answers background requests with an acknowledgment
type JSONAckResponder struct{}

func (JSONAckResponder) Respond(c *gin.Context, target string) {
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"redirect_to": target,
	})
}

// responderFor picks the response shape from how the request was submitted
func responderFor(c *gin.Context, jsonBody bool) AuthResponder {
	if jsonBody || isBackgroundRequest(c.Request) {
		return JSONAckResponder{}
	}
	return FormRedirectResponder{}
}

// isBackgroundRequest detects fetch/XHR callers that expect JSON
func isBackgroundRequest(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
