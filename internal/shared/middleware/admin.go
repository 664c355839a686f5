package middleware

import (
	"github.com/gin-gonic/gin"

	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/response"
)

// AdminMiddleware checks if user has admin role. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(shared.ContextRole) != shared.RoleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
