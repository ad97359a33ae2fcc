package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"smartsupply/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status, and puts the
// request-scoped logger on the context for the layers below.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithContext(c.Request.Context())
		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if gt := c.GetString(KeyGateType); gt != "" {
			kv = append(kv, "gate_type", gt)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		switch {
		case status >= 500:
			entry.Errorw("http request", kv...)
		case status >= 400:
			entry.Warnw("http request", kv...)
		default:
			entry.Infow("http request", kv...)
		}
	}
}
