package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	appctx "smartsupply/internal/core/context"
)

func TestFromContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{
		TraceID:       "trace-1",
		RequestID:     "req-1",
		CorrelationID: "corr-1",
	})
	ctx = WithLogger(ctx, log)

	Info(ctx, "movement committed", "reference", "OUT-2026-00001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.Equal(t, "OUT-2026-00001", fields["reference"])
}

func TestFromContext_CorrelationEqualsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), FromZap(zap.New(core)))
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{RequestID: "r", CorrelationID: "r"})

	Warn(ctx, "x")
	Debug(ctx, "filtered by level")

	require.Equal(t, 1, logs.Len())
	_, ok := logs.All()[0].ContextMap()["correlation_id"]
	assert.False(t, ok)
}

func TestWithComponent(t *testing.T) {
	log := FromZap(zaptest.NewLogger(t)).WithComponent("relay")
	assert.NotNil(t, log)
	log.Infow("started")
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Desugar().Core().Enabled(zap.DebugLevel))
}
