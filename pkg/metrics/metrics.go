// Package metrics provides Prometheus metrics for logexport.
//
// The export function is short-lived, so nothing scrapes it: at the end of an
// invocation the default registry is pushed to a Pushgateway when one is
// configured.
//
// # Basic Usage
//
//	metrics.Submissions.WithLabelValues("EXPORT_STARTED", "").Inc()
//
//	timer := metrics.NewTimer()
//	run()
//	metrics.InvocationDuration.WithLabelValues("success").Observe(timer.Stop().Seconds())
//
//	if err := metrics.Push(ctx, gatewayURL, "logexport"); err != nil {
//	    logger.Warn("metrics push failed", zap.Error(err))
//	}
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Submissions counts export-task submission outcomes.
	// Labels: status (EXPORT_STARTED, EXPORT_FAILED, EXPORT_DEFERRED, EXPORT_SKIPPED),
	// error_type (empty unless failed)
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logexport",
			Name:      "export_submissions_total",
			Help:      "Export task submissions by outcome",
		},
		[]string{"status", "error_type"},
	)

	// SubmitLatency tracks CreateExportTask call latency in seconds.
	SubmitLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "logexport",
			Name:      "export_submit_latency_seconds",
			Help:      "Latency of export task submission calls",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// InvocationDuration tracks whole-invocation duration.
	// Labels: status (success/error)
	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logexport",
			Name:      "invocation_duration_seconds",
			Help:      "Duration of export invocations",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
		[]string{"status"},
	)

	// ConfigEntries is the number of entries read in the last invocation.
	ConfigEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "logexport",
			Name:      "config_entries",
			Help:      "Configuration entries read by the last invocation",
		},
	)

	// Notifications counts notification messages processed by the consumer.
	// Labels: event_type
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logexport",
			Name:      "notifications_total",
			Help:      "Artifact notifications consumed from the queue",
		},
		[]string{"event_type"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It may be called
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Push sends every metric in the default registry to the Pushgateway at url,
// grouped under job. An empty url is a no-op.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
