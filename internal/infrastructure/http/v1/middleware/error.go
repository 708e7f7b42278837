package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/infrastructure/http/v1/dto"
	"inventra/internal/infrastructure/metrics"
	"inventra/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		if appErr, ok := apperror.AsAppError(err); ok {
			m.ErrorObserved(appErr.Code)
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(ctx, "request failed", "code", appErr.Code, "error", err)
			} else if appErr.Err != nil {
				logger.Debug(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
			}

			body := dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
			if appErr.Code == apperror.CodeInternal {
				body.Details = map[string]any{"request_id": c.GetString("request_id")}
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		// Unknown error - log and return generic message
		m.ErrorObserved(apperror.CodeInternal)
		logger.Error(ctx, "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		})
	}
}
