package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const DefaultSessionCookieName = "portal_session"

// SessionCookie carries the session token between browser and server
type SessionCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func NewSessionCookie(name string, maxAge time.Duration, secure bool) *SessionCookie {
	if name == "" {
		name = DefaultSessionCookieName
	}
	return &SessionCookie{
		Name:   name,
		MaxAge: maxAge,
		Secure: secure,
	}
}

// Set attaches token as an HttpOnly, SameSite=Lax cookie on path /
func (sc *SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, int(sc.MaxAge.Seconds()), "/", "", sc.Secure, true)
}

// Get returns the presented token, or "" when the cookie is absent
func (sc *SessionCookie) Get(c *gin.Context) string {
	token, err := c.Cookie(sc.Name)
	if err != nil {
		return ""
	}
	return token
}

// Clear instructs the browser to drop the cookie
func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}
