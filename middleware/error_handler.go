package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/logger"
)

// ErrorResponse is the JSON body of every error the API renders.
type ErrorResponse struct {
	Type    string      `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorHandler renders the last error attached to the context. Handlers
// report failures with c.Error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		err := last.Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			status := appErr.GetHTTPStatus()
			logger.LogHTTPError(c, err, status, string(appErr.Type)+" error")

			resp := ErrorResponse{
				Type:    string(appErr.Type),
				Code:    appErr.Code,
				Message: appErr.Message,
				Data:    appErr.Data,
			}
			if resp.Code == "" {
				resp.Code = string(appErr.Type)
			}
			// Server-side details stay in the logs.
			if status < http.StatusInternalServerError || gin.IsDebugging() {
				resp.Details = appErr.Detail
			}
			c.JSON(status, resp)
			return
		}

		if last.Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Type:    string(apperrors.ValidationError),
				Code:    string(apperrors.ValidationError),
				Message: "Failed to bind request",
				Details: err.Error(),
			})
			return
		}

		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unexpected server error")
		resp := ErrorResponse{
			Type:    string(apperrors.ServerError),
			Code:    string(apperrors.ServerError),
			Message: "Internal Server Error",
		}
		if gin.IsDebugging() {
			resp.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}
