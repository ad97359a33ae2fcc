package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartsupply/internal/core/apperror"
	appctx "smartsupply/internal/core/context"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderTraceID       = "X-Trace-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxTraceIDLength matches inv_movements.correlation_id.
const maxTraceIDLength = 128

// Gin context keys.
const (
	KeyRequestID = "request_id"
	KeyTraceID   = "trace_id"
	KeyGateType  = "gate_type"
)

// Trace middleware adds request tracing context.
// The correlation id defaults to the request id and ends up on every audit record.
// A tracing header longer than maxTraceIDLength is rejected with 400; the
// response still carries generated ids.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		var rejected string
		header := func(name string) string {
			v := c.GetHeader(name)
			if len(v) > maxTraceIDLength {
				rejected = name
				return ""
			}
			return v
		}

		requestID := header(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := header(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		correlationID := header(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = requestID
		}

		trace := &appctx.TraceContext{
			TraceID:       traceID,
			SpanID:        uuid.New().String()[:16],
			RequestID:     requestID,
			CorrelationID: correlationID,
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set(KeyTraceID, traceID)
		c.Set(KeyRequestID, requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)
		c.Header(HeaderCorrelationID, correlationID)

		if rejected != "" {
			writeError(c, http.StatusBadRequest, apperror.NewValidation("tracing header is too long").
				WithDetail("header", rejected).
				WithDetail("max", maxTraceIDLength))
			c.Abort()
			return
		}

		c.Next()
	}
}
