package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithContext_AddsInvocationAndLogGroup(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := WithLogGroup(WithInvocation(context.Background(), "inv-1"), "/service/api")
	WithContext(ctx).Info("export task created")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "inv-1", fields["invocation_id"])
	assert.Equal(t, "/service/api", fields["log_group"])
}

func TestGet_DefaultsWhenUninitialised(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })
	assert.NotNil(t, Get())
}
