package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/awsclient"
	"github.com/ajitpratap0/logexport/internal/export"
	"github.com/ajitpratap0/logexport/internal/orchestrator"
	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/config"
	"github.com/ajitpratap0/logexport/pkg/logger"
	"github.com/ajitpratap0/logexport/pkg/metrics"
	"github.com/ajitpratap0/logexport/pkg/observability"
)

const serviceName = "logexport"

// app holds what every command needs: configuration and AWS settings.
type app struct {
	cfg *config.Config
	aws aws.Config
}

// setup loads configuration, initialises logging and tracing and resolves
// AWS credentials. Interactive commands log in console format.
func setup(ctx context.Context, configPath string, console bool) (*app, error) {
	cfg, err := config.LoadRuntime(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logCfg := logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogFormat,
	}
	if console {
		logCfg.Encoding = "console"
		logCfg.OutputPaths = []string{"stderr"}
	}
	if err := logger.Init(logCfg); err != nil {
		return nil, err
	}

	if _, err := observability.Init(observability.DefaultTracingConfig(
		serviceName, version, cfg.Observability.Environment, cfg.Observability.TracingSampleRate,
	)); err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	awsCfg, err := awsclient.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, aws: awsCfg}, nil
}

func (a *app) dynamoDB() *dynamodb.Client {
	return dynamodb.NewFromConfig(a.aws)
}

func (a *app) configTable() (*store.Table, error) {
	if err := a.cfg.RequireTable(); err != nil {
		return nil, err
	}
	return store.NewTable(a.dynamoDB(), a.cfg.Store.TableName), nil
}

func (a *app) cloudWatch() *export.CloudWatch {
	return export.NewCloudWatch(cloudwatchlogs.NewFromConfig(a.aws))
}

// orchestrator wires the configuration table, export API and, when a lease
// table is configured, the overlap guard.
func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	table, err := a.configTable()
	if err != nil {
		return nil, err
	}

	var opts []orchestrator.Option
	if a.cfg.Store.LeaseEnabled() {
		opts = append(opts, orchestrator.WithLeaser(store.NewLeaseTable(a.dynamoDB(), a.cfg.Store.LeaseTableName)))
	}
	return orchestrator.New(table, a.cloudWatch(), orchestrator.FromConfig(a.cfg), opts...), nil
}

// finish pushes metrics and flushes spans at the end of a cycle
func (a *app) finish(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, a.cfg.Observability.PushGateway, serviceName); err != nil {
		logger.Warn("metrics push failed", zap.Error(err))
	}
	if err := observability.Flush(ctx); err != nil {
		logger.Warn("trace flush failed", zap.Error(err))
	}
	_ = logger.Sync()
}

// close ends a CLI process: it finishes the cycle and stops the tracer
func (a *app) close(ctx context.Context) {
	a.finish(ctx)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := observability.Shutdown(ctx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
}

func newInvocationID() string {
	return uuid.NewString()
}
