package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
)

// RequireRole lets the request through only for the listed roles. It must
// run after AuthMiddleware.
func RequireRole(allowed ...types.Role) gin.HandlerFunc {
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = string(r)
	}

	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			_ = c.Error(apperrors.AuthenticationFailed("Authentication required"))
			c.Abort()
			return
		}
		for _, r := range allowed {
			if actor.Role == r {
				c.Next()
				return
			}
		}

		logger.GetLogger().Warnw("Role check failed",
			"userId", actor.UserID,
			"role", actor.Role,
			"path", c.FullPath())
		_ = c.Error(apperrors.Forbidden("Insufficient role",
			fmt.Sprintf("requires one of %s", strings.Join(names, ", "))))
		c.Abort()
	}
}
