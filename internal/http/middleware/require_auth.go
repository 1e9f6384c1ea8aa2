package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests that carry no authenticated session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"error":      "You must be signed in to access this resource.",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
