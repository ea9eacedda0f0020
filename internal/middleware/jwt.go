package middleware

import (
	"context"  // Context for session lookups
	"net/http" // HTTP status codes

	"quotation_system/internal/utils" // Session token helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// CookieName is the session cookie set on login
const CookieName = "quotation_session"

// Context keys populated by SessionAuthMiddleware
const (
	userIDKey    = "userID"
	usernameKey  = "username"
	sessionIDKey = "sessionID"
)

// SessionLookup resolves a live session id to its user
type SessionLookup interface {
	Lookup(ctx context.Context, sid string) (uint, error)
}

// SessionAuthMiddleware validates the session cookie and its server-side session.
// Requests without a valid session are redirected to the login page.
func SessionAuthMiddleware(secret string, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(CookieName) // Read the session cookie
		if err != nil || tokenStr == "" {
			redirectToLogin(c) // No cookie, not logged in
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Verify signature and expiry
		if err != nil {
			logrus.WithField("error", err).Debug("Rejected session token")
			redirectToLogin(c)
			return
		}
		userID, err := sessions.Lookup(c.Request.Context(), claims.SessionID()) // Session must still be live
		if err != nil || userID != claims.UserID {
			logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "error": err}).Debug("Session not live")
			redirectToLogin(c)
			return
		}
		c.Set(userIDKey, claims.UserID)         // Store userID in context
		c.Set(usernameKey, claims.Username)     // Store username for templates
		c.Set(sessionIDKey, claims.SessionID()) // Store session id for logout
		c.Next()                                // Proceed to the next handler
	}
}

// redirectToLogin aborts the chain with a See Other to /login
func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

// UserID returns the authenticated user's id, or 0 outside a session
func UserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// Username returns the authenticated user's name
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}

// SessionID returns the current session id
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
