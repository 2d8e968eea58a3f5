package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
)

const (
	// SessionHeader carries the session id for clients without cookies.
	SessionHeader = "X-Session-ID"

	sessionIDKey    = "session_id"
	maxSessionIDLen = 128
)

// Session resolves the shopper's session id from the cookie or the
// X-Session-ID header, minting one when neither is present. The id is
// echoed back on both.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.MaxAge / time.Second)

	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(id) {
			id = c.GetHeader(SessionHeader)
		}
		if !validSessionID(id) {
			id = uuid.New().String()
		}

		c.Set(sessionIDKey, id)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, id, maxAge, "/", "", cfg.Secure, true)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

// SessionID returns the id resolved by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

func validSessionID(id string) bool {
	return id != "" && len(id) <= maxSessionIDLen
}
