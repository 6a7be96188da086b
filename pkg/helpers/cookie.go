package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	// the refresh token is only sent back to the API routes
	refreshCookiePath = "/api"
)

// AuthCookies writes the httpOnly token pair for browser clients.
type AuthCookies struct {
	Domain string
	Secure bool
}

// NewAuthCookies treats "localhost" as a host-only cookie since browsers
// reject an explicit localhost domain.
func NewAuthCookies(domain string, secure bool) *AuthCookies {
	if domain == "localhost" {
		domain = ""
	}
	return &AuthCookies{Domain: domain, Secure: secure}
}

func (a *AuthCookies) Set(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, access, maxAgeFrom(aexp), "/", a.Domain, a.Secure, true)
	c.SetCookie(RefreshCookieName, refresh, maxAgeFrom(rexp), refreshCookiePath, a.Domain, a.Secure, true)
}

func (a *AuthCookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, "", -1, "/", a.Domain, a.Secure, true)
	c.SetCookie(RefreshCookieName, "", -1, refreshCookiePath, a.Domain, a.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	if sec := int(time.Until(exp).Seconds()); sec > 0 {
		return sec
	}
	return 0
}
