package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/domain/gate"
	"smartsupply/internal/infrastructure/http/v1/dto"
	"smartsupply/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"message", appErr.Message,
					"cause", appErr.Err,
				)
			}
			if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.Code == apperror.CodeInternal {
				appErr = apperror.NewInternal(nil).WithDetail("request_id", c.GetString(KeyRequestID))
			}
			writeError(c, appErr.HTTPStatus, appErr)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)
		writeError(c, http.StatusInternalServerError,
			apperror.NewInternal(nil).WithDetail("request_id", c.GetString(KeyRequestID)))
	}
}

func writeError(c *gin.Context, status int, appErr *apperror.AppError) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, dto.Envelope{
		Success:  false,
		Message:  appErr.Message,
		GateType: gate.Tier(c.GetString(KeyGateType)),
		Error: &dto.ErrorBody{
			Code:    appErr.Code,
			Details: appErr.Details,
		},
	})
}
