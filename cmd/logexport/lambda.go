package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/orchestrator"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

// exporter runs one export cycle
type exporter interface {
	Run(ctx context.Context, invocationID string) (*orchestrator.Report, error)
}

// lambdaHandler answers scheduled invocations.
type lambdaHandler struct {
	orch   exporter
	finish func(context.Context)
}

func newLambdaHandler() (*lambdaHandler, error) {
	ctx := context.Background()
	a, err := setup(ctx, "", false)
	if err != nil {
		return nil, err
	}
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}
	return &lambdaHandler{orch: orch, finish: a.finish}, nil
}

// Handle runs one cycle. The scheduled event carries no input and is only
// logged. A configuration read failure is returned as the invocation error;
// every other outcome is reported in the response body.
func (h *lambdaHandler) Handle(ctx context.Context, event events.CloudWatchEvent) (orchestrator.Response, error) {
	if h.finish != nil {
		defer h.finish(ctx)
	}

	id := invocationID(ctx)
	logger.WithContext(logger.WithInvocation(ctx, id)).Info("export triggered",
		zap.String("source", event.Source),
		zap.String("detail_type", event.DetailType),
		zap.Time("time", event.Time))

	report, err := h.orch.Run(ctx, id)
	if err != nil {
		return orchestrator.Response{}, err
	}
	return report.Response()
}

// invocationID is the Lambda request id, or a fresh UUID outside Lambda
func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return newInvocationID()
}
