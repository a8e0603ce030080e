package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

func quietLogger(t *testing.T) {
	logger.Set(zap.NewNop())
	t.Cleanup(func() { logger.Set(nil) })
}

// Every entry yields exactly one result, failures stay with their entry and
// the window is the same for all of them.
func TestRun_OneResultPerEntry(t *testing.T) {
	quietLogger(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("results match entries one to one", prop.ForAll(
		func(failures []bool, concurrency int) bool {
			entries := make([]store.Entry, len(failures))
			fail := make(map[string]error)
			for i, f := range failures {
				name := fmt.Sprintf("/service/%03d", i)
				entries[i] = store.Entry{LogGroupName: name, Bucket: "logs-bucket"}
				if f {
					fail[name] = stderrors.New("export rejected")
				}
			}

			sub := &fakeSubmitter{fail: fail}
			cfg := testConfig()
			cfg.Concurrency = concurrency

			report, err := newTestOrchestrator(store.NewMemory(entries...), sub, cfg).Run(context.Background(), "prop")
			if err != nil || len(report.Results) != len(entries) || sub.calls() != len(entries) {
				return false
			}

			for i, r := range report.Results {
				if r.LogGroupName != entries[i].LogGroupName {
					return false
				}
				want := StatusStarted
				if failures[i] {
					want = StatusFailed
				}
				if r.Status != want {
					return false
				}
				if (r.TaskID == "") != failures[i] {
					return false
				}
			}

			for _, req := range sub.requests {
				if !req.From.Equal(report.Window.Start) || !req.To.Equal(report.Window.End) {
					return false
				}
			}
			return report.Count(StatusStarted)+report.Count(StatusFailed) == len(entries)
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

func TestNewWindow_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("window spans exactly the configured minutes", prop.ForAll(
		func(minutes int, offsetMs int64, nanos int) bool {
			now := base.Add(time.Duration(offsetMs)*time.Millisecond + time.Duration(nanos))
			w := NewWindow(now, time.Duration(minutes)*time.Minute)
			return w.EndMs()-w.StartMs() == int64(minutes)*60000 && !w.End.After(now)
		},
		gen.IntRange(1, 525600),
		gen.Int64Range(0, 365*24*3600*1000),
		gen.IntRange(0, 999999),
	))

	properties.Property("on-schedule runs leave no gaps", prop.ForAll(
		func(minutes int, runs int) bool {
			span := time.Duration(minutes) * time.Minute
			prev := NewWindow(base, span)
			for i := 1; i < runs; i++ {
				next := NewWindow(base.Add(time.Duration(i)*span), span)
				if next.StartMs() != prev.EndMs() {
					return false
				}
				prev = next
			}
			return true
		},
		gen.IntRange(1, 10080),
		gen.IntRange(2, 30),
	))

	properties.TestingRun(t)
}
