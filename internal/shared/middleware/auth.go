package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/pkg/jwt"
	"pointshop-backend/pkg/logger"
)

// TokenValidator is satisfied by *jwt.Manager
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware rejects the request with 401 unless it carries
// "Authorization: Bearer <access token>" signed with our secret.
// On success user_id (uuid.UUID), user_email and user_role are set on the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected token: " + err.Error())
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(shared.ContextUserID, userID)
		c.Set(shared.ContextEmail, claims.Email)
		c.Set(shared.ContextRole, claims.Role)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	response.Unauthorized(c, message)
	c.Abort()
}

// GetUserID returns the authenticated user id set by AuthMiddleware
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(shared.ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
