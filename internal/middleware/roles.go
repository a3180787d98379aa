package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts-api/internal/entities"
)

// RequireRoles returns a Gin middleware that allows the request only when
// the authenticated identity's role is in the given set. With no roles
// declared it allows unconditionally. Must be wired after AuthMiddleware,
// which attaches the identity it reads.
func RequireRoles(roles ...entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(roles) == 0 {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		c.Abort()
	}
}
