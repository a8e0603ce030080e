// Package orchestrator runs one export cycle: it reads every configuration
// entry, computes a single export window and submits one export task per
// entry.
//
// # Overview
//
// An invocation never fails because of one entry. Each entry ends in exactly
// one Result:
//   - EXPORT_STARTED when the service accepted the task
//   - EXPORT_FAILED when validation or submission failed
//   - EXPORT_DEFERRED when the invocation budget ran out first
//   - EXPORT_SKIPPED when another invocation holds the entry's lease
//
// Only a failure to read the configuration store fails the invocation.
//
// # Basic Usage
//
//	orch := orchestrator.New(table, exporter, orchestrator.DefaultConfig())
//	report, err := orch.Run(ctx, invocationID)
//	if err != nil {
//	    return err
//	}
//	resp, err := report.Response()
package orchestrator

import (
	"context"
	stderrors "errors"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/logexport/internal/export"
	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/config"
	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
	"github.com/ajitpratap0/logexport/pkg/metrics"
	"github.com/ajitpratap0/logexport/pkg/observability"
)

// Config controls one invocation.
type Config struct {
	TimeRange     time.Duration // Length of the export window
	Concurrency   int           // Submissions in flight; 1 is sequential
	SubmitRate    float64       // Submissions per second across workers; 0 disables pacing
	SubmitTimeout time.Duration // Upper bound of a single submission call
	SafetyMargin  time.Duration // Budget kept back from the invocation deadline
	PrefixRoot    string        // Root of generated prefixes
	LeaseTTL      time.Duration // Lease record retention past the window end
}

// DefaultConfig mirrors config.Default
func DefaultConfig() *Config {
	return FromConfig(config.Default())
}

// FromConfig builds an orchestrator Config from the application config
func FromConfig(c *config.Config) *Config {
	return &Config{
		TimeRange:     c.Export.TimeRange(),
		Concurrency:   c.Export.Concurrency,
		SubmitRate:    c.Export.SubmitRate,
		SubmitTimeout: c.Export.SubmitTimeout,
		SafetyMargin:  c.Export.SafetyMargin,
		PrefixRoot:    c.Export.PrefixRoot,
		LeaseTTL:      c.Store.LeaseTTL,
	}
}

// Orchestrator fans configuration entries out to export submissions.
type Orchestrator struct {
	repo      store.Repository
	submitter export.Submitter
	leaser    store.Leaser
	cfg       Config
	now       func() time.Time
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithLeaser enables the per-log-group overlap guard
func WithLeaser(l store.Leaser) Option {
	return func(o *Orchestrator) { o.leaser = l }
}

// WithClock replaces time.Now for window computation
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator. A nil cfg uses DefaultConfig.
func New(repo store.Repository, submitter export.Submitter, cfg *Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := &Orchestrator{
		repo:      repo,
		submitter: submitter,
		cfg:       *cfg,
		now:       time.Now,
	}
	if o.cfg.Concurrency < 1 {
		o.cfg.Concurrency = 1
	}
	if o.cfg.TimeRange <= 0 {
		o.cfg.TimeRange = config.DefaultTimeRangeMinutes * time.Minute
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// invocation carries the state shared by every entry of one Run
type invocation struct {
	id          string
	window      Window
	cutoff      time.Time
	hasDeadline bool
	limiter     *rate.Limiter
}

// Run executes one export cycle. The returned error is non-nil only when the
// configuration store cannot be read.
func (o *Orchestrator) Run(ctx context.Context, invocationID string) (*Report, error) {
	timer := metrics.NewTimer()
	ctx = logger.WithInvocation(ctx, invocationID)
	ctx, span := observability.StartSpan(ctx, "orchestrator.run")
	defer span.End()
	op := observability.StartOperation(ctx, "export_cycle", "export cycle starting")
	log := op.Logger()

	inv := &invocation{
		id:     invocationID,
		window: NewWindow(o.now(), o.cfg.TimeRange),
	}
	if deadline, ok := ctx.Deadline(); ok {
		inv.hasDeadline = true
		inv.cutoff = deadline.Add(-o.cfg.SafetyMargin)
	}
	if o.cfg.SubmitRate > 0 {
		inv.limiter = rate.NewLimiter(rate.Limit(o.cfg.SubmitRate), 1)
	}
	span.SetAttribute("window.start_ms", inv.window.StartMs())
	span.SetAttribute("window.end_ms", inv.window.EndMs())

	entries, err := o.repo.ListEntries(ctx)
	if err != nil {
		span.RecordError(err)
		metrics.InvocationDuration.WithLabelValues("error").Observe(timer.Stop().Seconds())
		op.Fail("failed to read configuration entries", err)
		return nil, errors.Wrap(err, errors.GetType(err), "failed to list configuration entries")
	}
	metrics.ConfigEntries.Set(float64(len(entries)))
	span.SetAttribute("entries", len(entries))

	if len(entries) == 0 {
		log.Info("no log group configurations found")
	} else {
		log.Info("exporting log groups",
			zap.Int("entries", len(entries)),
			zap.Time("from", inv.window.Start),
			zap.Time("to", inv.window.End),
			zap.Int("concurrency", o.cfg.Concurrency))
	}

	results := make([]Result, len(entries))
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = o.process(ctx, inv, entry)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(invocationID, inv.window, results)
	report.Duration = timer.Stop()
	for _, r := range results {
		metrics.Submissions.WithLabelValues(string(r.Status), string(r.ErrorType)).Inc()
	}
	metrics.InvocationDuration.WithLabelValues("success").Observe(report.Duration.Seconds())

	op.Complete("export cycle completed",
		zap.Int("started", report.Count(StatusStarted)),
		zap.Int("failed", report.Count(StatusFailed)),
		zap.Int("deferred", report.Count(StatusDeferred)),
		zap.Int("skipped", report.Count(StatusSkipped)))
	return report, nil
}

func (o *Orchestrator) process(ctx context.Context, inv *invocation, entry store.Entry) Result {
	ctx = logger.WithLogGroup(ctx, entry.LogGroupName)
	log := observability.Logger(ctx)

	req := export.Request{
		LogGroupName: entry.LogGroupName,
		From:         inv.window.Start,
		To:           inv.window.End,
		Bucket:       entry.Bucket,
		Prefix:       o.prefixFor(entry, inv.window),
	}
	result := Result{LogGroupName: entry.LogGroupName, Destination: req.Destination()}

	if entry.Invalid != "" {
		err := errors.Newf(errors.ErrorTypeValidation, "undecodable configuration entry: %s", entry.Invalid)
		log.Error("invalid configuration entry", zap.Error(err))
		return failed(result, err)
	}
	if err := req.Validate(); err != nil {
		log.Error("invalid configuration entry", zap.Error(err))
		return failed(result, err)
	}

	if o.exhausted(ctx, inv) {
		log.Warn("deferring export, invocation budget exhausted")
		result.Status = StatusDeferred
		return result
	}

	if inv.limiter != nil {
		waitCtx := ctx
		if inv.hasDeadline {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithDeadline(ctx, inv.cutoff)
			defer cancel()
		}
		if err := inv.limiter.Wait(waitCtx); err != nil {
			log.Warn("deferring export, no budget left to pace submission", zap.Error(err))
			result.Status = StatusDeferred
			return result
		}
	}

	leased := false
	if o.leaser != nil {
		lease := store.NewLease(entry.LogGroupName, inv.id, inv.window.Start, inv.window.End,
			inv.window.End.Add(o.cfg.LeaseTTL))
		err := o.leaser.Acquire(ctx, lease)
		switch {
		case stderrors.Is(err, store.ErrLeaseHeld):
			log.Info("skipping export, window leased by another invocation")
			result.Status = StatusSkipped
			return result
		case err != nil:
			log.Warn("lease unavailable, exporting without it", zap.Error(err))
		default:
			leased = true
		}
	}

	callCtx, cancel := o.callContext(ctx, inv)
	defer cancel()
	callCtx, span := observability.StartSpan(callCtx, "export.submit")
	defer span.End()
	span.SetAttribute("log_group", entry.LogGroupName)
	span.SetAttribute("destination", result.Destination)

	log.Info("exporting logs", zap.String("destination", result.Destination))
	task, err := o.submitter.Submit(callCtx, req)
	if err != nil {
		span.RecordError(err)
		log.Error("error exporting logs", zap.Error(err),
			zap.Bool("retryable", errors.IsRetryable(err)),
			zap.Duration("elapsed", span.Duration()))
		if leased {
			// a later run must be able to export this window again
			if rerr := o.leaser.Release(ctx, entry.LogGroupName, inv.id); rerr != nil {
				log.Warn("failed to release lease", zap.Error(rerr))
			}
		}
		return failed(result, err)
	}

	log.Info("export task created", zap.String("task_id", task.ID))
	result.TaskID = task.ID
	result.Status = StatusStarted
	return result
}

// exhausted reports whether an entry may no longer start
func (o *Orchestrator) exhausted(ctx context.Context, inv *invocation) bool {
	if ctx.Err() != nil {
		return true
	}
	return inv.hasDeadline && !time.Now().Before(inv.cutoff)
}

// callContext bounds one submission by min(SubmitTimeout, remaining budget)
func (o *Orchestrator) callContext(ctx context.Context, inv *invocation) (context.Context, context.CancelFunc) {
	timeout := o.cfg.SubmitTimeout
	if inv.hasDeadline {
		if remaining := time.Until(inv.cutoff); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 && !inv.hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// prefixFor returns the entry's prefix, or exports/<group>/<date of window end>
func (o *Orchestrator) prefixFor(entry store.Entry, w Window) string {
	if entry.Prefix != "" {
		return entry.Prefix
	}
	group := strings.TrimPrefix(entry.LogGroupName, "/")
	return path.Join(o.cfg.PrefixRoot, group, w.End.UTC().Format("2006-01-02"))
}

func failed(result Result, err error) Result {
	result.Status = StatusFailed
	result.Error = err.Error()
	result.ErrorType = errors.Classify(err)
	return result
}
