package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/logexport/pkg/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })
	return logs
}

func TestLogger_AddsTraceFields(t *testing.T) {
	logs := observe(t)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = logger.WithInvocation(ctx, "inv-1")

	Logger(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "inv-1", fields["invocation_id"])
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}

func TestLogger_NoSpan(t *testing.T) {
	logs := observe(t)

	Logger(context.Background()).Info("hello")

	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "trace_id")
}

func TestOperationLogger(t *testing.T) {
	logs := observe(t)

	op := StartOperation(context.Background(), "export_cycle", "starting")
	op.Complete("done", zap.Int("started", 2))
	op.Fail("broken", errors.New("scan failed"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)

	done := entries[1].ContextMap()
	assert.Equal(t, "export_cycle", done["operation"])
	assert.EqualValues(t, 2, done["started"])
	assert.Contains(t, done, "duration")

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "scan failed", entries[2].ContextMap()["error"])
}
