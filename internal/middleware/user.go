package middleware

import (
	"context"  // Context for user lookups
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"quotation_system/internal/domain" // Domain models
	"quotation_system/internal/store"  // Store errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// UserFinder loads a user by id
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

const userKey = "user"

// RequireUserMiddleware checks that the session's user still exists on each request
func RequireUserMiddleware(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c) // Set by SessionAuthMiddleware
		if userID == 0 {
			redirectToLogin(c)
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID) // Fetch user from database
		if errors.Is(err, store.ErrNotFound) {
			// Account deleted since the session was issued
			redirectToLogin(c)
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to load session user")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(userKey, user) // Store the user for handlers
		c.Next()             // Proceed to the next handler
	}
}

// CurrentUser returns the user loaded by RequireUserMiddleware
func CurrentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := v.(domain.User)
	return user, ok
}
