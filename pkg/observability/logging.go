package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/pkg/logger"
)

// Logger returns the context logger with trace_id and span_id added when ctx
// carries a sampled span, so log lines can be joined to traces.
func Logger(ctx context.Context) *zap.Logger {
	l := logger.WithContext(ctx)

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

// OperationLogger logs the start and end of a named operation with its
// elapsed time.
type OperationLogger struct {
	logger    *zap.Logger
	operation string
	startTime time.Time
}

// StartOperation logs msg at debug level and returns a logger that reports
// the operation's duration on completion.
func StartOperation(ctx context.Context, operation, msg string, fields ...zap.Field) *OperationLogger {
	ol := &OperationLogger{
		logger:    Logger(ctx).With(zap.String("operation", operation)),
		operation: operation,
		startTime: time.Now(),
	}
	ol.logger.Debug(msg, fields...)
	return ol
}

// Logger returns the underlying logger
func (ol *OperationLogger) Logger() *zap.Logger {
	return ol.logger
}

// Complete logs msg at info level with the elapsed duration
func (ol *OperationLogger) Complete(msg string, fields ...zap.Field) {
	fields = append(fields, zap.Duration("duration", time.Since(ol.startTime)))
	ol.logger.Info(msg, fields...)
}

// Fail logs msg at error level with err and the elapsed duration
func (ol *OperationLogger) Fail(msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Error(err),
		zap.Duration("duration", time.Since(ol.startTime)),
	)
	ol.logger.Error(msg, fields...)
}
