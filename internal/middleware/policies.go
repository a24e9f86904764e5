package middleware

import (
	"net/http"

	"anoa.com/reportdesk/internal/ability"
	"github.com/gin-gonic/gin"
)

// RequirePolicy declares the capability a route needs. It evaluates the
// requesting user's capability set against the (action, subject) pair and
// rejects with Forbidden when the set does not permit it. Ownership
// conditions on concrete resources are checked in the services, where the
// resource has been loaded.
func RequirePolicy(action ability.Action, subject ability.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if !ability.For(user).Can(action, subject) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}

		c.Next()
	}
}
