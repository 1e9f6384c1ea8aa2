package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin rejects requests whose session does not carry the admin role.
// Must run after SessionMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"error":      "You must be signed in to access this resource.",
				"request_id": GetRequestID(c),
			})
			return
		}
		if user.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":    false,
				"error":      "You are not allowed to access this resource.",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
