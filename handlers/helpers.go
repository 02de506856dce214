package handlers

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/middleware"
	"github.com/logiflow/dispatch-backend/types"
)

func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return false
	}
	return true
}

// actorOrError returns the authenticated caller, reporting 401 when absent.
func actorOrError(c *gin.Context) (types.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationFailed("User not authenticated"))
		return types.Actor{}, false
	}
	return actor, true
}
