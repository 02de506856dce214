package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
)

// AuthMiddleware requires a valid Bearer token and stores the user ID and
// role on the context.
func AuthMiddleware(validator Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
			_ = c.Error(apperrors.AuthenticationFailed("Authorization token required"))
			c.Abort()
			return
		}

		claims, err := validator.Validate(token)
		if err != nil {
			logger.GetLogger().Debugw("Token validation failed", "path", c.Request.URL.Path, "error", err)
			msg := "Invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Your session has expired"
			}
			_ = c.Error(apperrors.AuthenticationFailed(msg))
			c.Abort()
			return
		}

		c.Set(string(UserIDKey), claims.UserID)
		c.Set(string(UserRoleKey), claims.Role)
		c.Next()
	}
}

// ActorFromContext returns the caller set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (types.Actor, bool) {
	userID := c.GetString(string(UserIDKey))
	if userID == "" {
		return types.Actor{}, false
	}
	role, _ := c.Get(string(UserRoleKey))
	r, _ := role.(types.Role)
	return types.Actor{UserID: userID, Role: r}, true
}
