// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// It runs outside ErrorHandler, so it writes the envelope itself.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				appErr := apperror.NewInternal(fmt.Errorf("panic: %v", err)).
					WithDetail("request_id", c.GetString(KeyRequestID))
				if !c.Writer.Written() {
					writeError(c, http.StatusInternalServerError, appErr)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
