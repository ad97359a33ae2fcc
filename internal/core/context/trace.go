// Package context carries request tracing and correlation data through context.Context.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext contains request tracing information.
// CorrelationID is the caller-supplied id propagated unchanged into audit records.
type TraceContext struct {
	TraceID       string
	SpanID        string
	RequestID     string
	CorrelationID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetTraceID returns trace ID from context or generates new one.
func GetTraceID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.TraceID
	}
	return uuid.New().String()
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// GetCorrelationID returns the caller correlation id, falling back to the request id.
func GetCorrelationID(ctx context.Context) string {
	t := GetTrace(ctx)
	if t == nil {
		return ""
	}
	if t.CorrelationID != "" {
		return t.CorrelationID
	}
	return t.RequestID
}

// WithCorrelationID returns a context whose trace carries the given correlation id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	next := TraceContext{}
	if t := GetTrace(ctx); t != nil {
		next = *t
	}
	next.CorrelationID = correlationID
	return WithTrace(ctx, &next)
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	requestID := uuid.New().String()
	return &TraceContext{
		TraceID:       uuid.New().String(),
		SpanID:        uuid.New().String()[:16],
		RequestID:     requestID,
		CorrelationID: requestID,
	}
}
