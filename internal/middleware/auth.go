package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/constants"
	apierrors "github.com/yukikurage/ensemble/internal/errors"
)

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(constants.ContextKeyUserID).(string)

		if !ok || userID == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store user ID and name in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		if name, ok := session.Get(constants.ContextKeyUserName).(string); ok {
			c.Set(constants.ContextKeyUserName, name)
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}

// GetUserName retrieves the current user's display name from context
func GetUserName(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserName)
}
