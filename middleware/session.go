package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionIDKey is the gin context key holding the browser session id.
const SessionIDKey = "sessionID"

// Session makes sure every request carries a session cookie and exposes
// its value under SessionIDKey. A cookie that is not an id this middleware
// issued is replaced.
func Session(cookieName string, idle time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || !issued(sessionID) {
			sessionID = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, sessionID, int(idle.Seconds()), "/", "", secure, true)
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

func issued(sessionID string) bool {
	id, err := uuid.Parse(sessionID)
	return err == nil && id.String() == sessionID
}
