package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/pkg/logger"
)

// Environment variables read by the exporter. The first two form the
// function's deployment contract.
const (
	EnvTableName         = "LOGS_CONFIG_TABLE_NAME"
	EnvTimeRangeMinutes  = "EXPORT_TIME_RANGE_MINUTES"
	EnvConcurrency       = "EXPORT_CONCURRENCY"
	EnvSubmitRate        = "EXPORT_SUBMIT_RATE"
	EnvSubmitTimeout     = "EXPORT_SUBMIT_TIMEOUT"
	EnvSafetyMargin      = "EXPORT_SAFETY_MARGIN"
	EnvPrefixRoot        = "EXPORT_PREFIX_ROOT"
	EnvLeaseTableName    = "EXPORT_LEASE_TABLE_NAME"
	EnvLeaseTTL          = "EXPORT_LEASE_TTL"
	EnvQueueURL          = "NOTIFICATION_QUEUE_URL"
	EnvRegion            = "AWS_REGION"
	EnvEndpoint          = "AWS_ENDPOINT_URL"
	EnvMaxAttempts       = "AWS_MAX_ATTEMPTS"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvTracingSampleRate = "TRACING_SAMPLE_RATE"
	EnvPushGateway       = "PROMETHEUS_PUSHGATEWAY"
	EnvEnvironment       = "ENVIRONMENT"
)

var envBindings = map[string]string{
	"store.table_name":                  EnvTableName,
	"export.time_range_minutes":         EnvTimeRangeMinutes,
	"export.concurrency":                EnvConcurrency,
	"export.submit_rate":                EnvSubmitRate,
	"export.submit_timeout":             EnvSubmitTimeout,
	"export.safety_margin":              EnvSafetyMargin,
	"export.prefix_root":                EnvPrefixRoot,
	"store.lease_table_name":            EnvLeaseTableName,
	"store.lease_ttl":                   EnvLeaseTTL,
	"notify.queue_url":                  EnvQueueURL,
	"aws.region":                        EnvRegion,
	"aws.endpoint":                      EnvEndpoint,
	"aws.max_attempts":                  EnvMaxAttempts,
	"observability.log_level":           EnvLogLevel,
	"observability.log_format":          EnvLogFormat,
	"observability.tracing_sample_rate": EnvTracingSampleRate,
	"observability.push_gateway":        EnvPushGateway,
	"observability.environment":         EnvEnvironment,
}

// LoadRuntime builds a Config from defaults, an optional YAML file and the
// process environment, in increasing order of precedence.
//
// An unparsable or non-positive EXPORT_TIME_RANGE_MINUTES is not fatal: a
// warning is logged and the 1440 minute default is used.
func LoadRuntime(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	sanitizeTimeRange(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func sanitizeTimeRange(v *viper.Viper) {
	const key = "export.time_range_minutes"

	raw := strings.TrimSpace(v.GetString(key))
	minutes, err := strconv.Atoi(raw)
	if err == nil && minutes > 0 {
		v.Set(key, minutes)
		return
	}

	logger.Warn("invalid export time range, using default",
		zap.String("env", EnvTimeRangeMinutes),
		zap.String("value", raw),
		zap.Int("default_minutes", DefaultTimeRangeMinutes))
	v.Set(key, DefaultTimeRangeMinutes)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("export.time_range_minutes", d.Export.TimeRangeMinutes)
	v.SetDefault("export.concurrency", d.Export.Concurrency)
	v.SetDefault("export.submit_rate", d.Export.SubmitRate)
	v.SetDefault("export.submit_timeout", d.Export.SubmitTimeout)
	v.SetDefault("export.safety_margin", d.Export.SafetyMargin)
	v.SetDefault("export.prefix_root", d.Export.PrefixRoot)
	v.SetDefault("store.table_name", d.Store.TableName)
	v.SetDefault("store.lease_table_name", d.Store.LeaseTableName)
	v.SetDefault("store.lease_ttl", d.Store.LeaseTTL)
	v.SetDefault("notify.queue_url", d.Notify.QueueURL)
	v.SetDefault("notify.wait_time", d.Notify.WaitTime)
	v.SetDefault("notify.max_messages", d.Notify.MaxMessages)
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.endpoint", d.AWS.Endpoint)
	v.SetDefault("aws.max_attempts", d.AWS.MaxAttempts)
	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_format", d.Observability.LogFormat)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
	v.SetDefault("observability.push_gateway", d.Observability.PushGateway)
	v.SetDefault("observability.environment", d.Observability.Environment)
}
