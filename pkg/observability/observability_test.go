package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledBySampleRate(t *testing.T) {
	enabled, err := Init(DefaultTracingConfig("logexport", "test", "test", 0))
	require.NoError(t, err)
	assert.False(t, enabled)

	// Spans still work against the no-op provider
	_, span := StartSpan(context.Background(), "noop")
	span.SetAttribute("entries", 3)
	span.RecordError(nil)
	span.End()
	assert.NoError(t, Flush(context.Background()))
}

func TestInit_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig("logexport", "test", "test", 1.0)
	cfg.Writer = &buf

	enabled, err := Init(cfg)
	require.NoError(t, err)
	require.True(t, enabled)
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "invocation")
	span.SetAttribute("entries", 2)
	span.SetAttribute("log_group", "/service/api")
	span.SetAttribute("lease", true)

	_, child := StartSpan(ctx, "submit")
	child.RecordError(errors.New("source not found"))
	child.End()
	span.End()

	require.NoError(t, Flush(context.Background()))
	assert.Contains(t, buf.String(), "invocation")
	assert.Contains(t, buf.String(), "source not found")
}

func TestShutdown_StopsProvider(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig("logexport", "test", "test", 1.0)
	cfg.Writer = &buf

	_, err := Init(cfg)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "export.submit")
	span.End()

	// buffered spans are exported on shutdown
	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "export.submit")

	// nothing left to stop or flush
	assert.NoError(t, Shutdown(context.Background()))
	assert.NoError(t, Flush(context.Background()))
}

func TestSpan_Duration(t *testing.T) {
	_, span := StartSpan(context.Background(), "submit")
	defer span.End()

	first := span.Duration()
	time.Sleep(time.Millisecond)
	assert.Greater(t, span.Duration(), first)
}
