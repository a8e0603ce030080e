// Package config provides the configuration system for logexport.
// A single Config structure is shared by the export function and the admin
// CLI; it is organized into logical sections:
//   - Export: time window, fan-out and per-call budget of an invocation
//   - Store: configuration table and optional lease table
//   - Notify: notification queue polled by the admin CLI
//   - AWS: region, endpoint override and SDK retry attempts
//   - Observability: logging, tracing and metrics push settings
//
// Example usage:
//
//	cfg, err := config.LoadRuntime("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.RequireTable(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

const (
	// DefaultTimeRangeMinutes is the export window length when none is configured (24 hours)
	DefaultTimeRangeMinutes = 1440
	// DefaultPrefixRoot is the leading path segment of generated destination prefixes
	DefaultPrefixRoot = "exports"
)

// Config is the unified configuration of the exporter and its admin tooling.
type Config struct {
	Export        ExportConfig        `yaml:"export" json:"export" mapstructure:"export"`
	Store         StoreConfig         `yaml:"store" json:"store" mapstructure:"store"`
	Notify        NotifyConfig        `yaml:"notify" json:"notify" mapstructure:"notify"`
	AWS           AWSConfig           `yaml:"aws" json:"aws" mapstructure:"aws"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ExportConfig controls how one invocation fans out export submissions.
type ExportConfig struct {
	// TimeRangeMinutes is the length of the exported window ending at invocation time
	TimeRangeMinutes int `yaml:"time_range_minutes" json:"time_range_minutes" mapstructure:"time_range_minutes"`
	// Concurrency bounds in-flight submissions; 1 submits sequentially
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	// SubmitRate paces submissions per second across workers (0 = unpaced)
	SubmitRate float64 `yaml:"submit_rate" json:"submit_rate" mapstructure:"submit_rate"`
	// SubmitTimeout caps a single submission call
	SubmitTimeout time.Duration `yaml:"submit_timeout" json:"submit_timeout" mapstructure:"submit_timeout"`
	// SafetyMargin is reserved at the end of the invocation budget for reporting
	SafetyMargin time.Duration `yaml:"safety_margin" json:"safety_margin" mapstructure:"safety_margin"`
	// PrefixRoot is used to build a prefix for entries configured without one
	PrefixRoot string `yaml:"prefix_root" json:"prefix_root" mapstructure:"prefix_root"`
}

// StoreConfig names the DynamoDB tables.
type StoreConfig struct {
	// TableName is the configuration table (LOGS_CONFIG_TABLE_NAME)
	TableName string `yaml:"table_name" json:"table_name" mapstructure:"table_name"`
	// LeaseTableName enables the per-source overlap guard when set
	LeaseTableName string `yaml:"lease_table_name" json:"lease_table_name" mapstructure:"lease_table_name"`
	// LeaseTTL is how long past the window end a lease record is kept
	LeaseTTL time.Duration `yaml:"lease_ttl" json:"lease_ttl" mapstructure:"lease_ttl"`
}

// NotifyConfig configures the notification queue consumer.
type NotifyConfig struct {
	QueueURL    string        `yaml:"queue_url" json:"queue_url" mapstructure:"queue_url"`
	WaitTime    time.Duration `yaml:"wait_time" json:"wait_time" mapstructure:"wait_time"`
	MaxMessages int           `yaml:"max_messages" json:"max_messages" mapstructure:"max_messages"`
}

// AWSConfig holds SDK client settings.
type AWSConfig struct {
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// Endpoint overrides every service endpoint, e.g. for LocalStack
	Endpoint    string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts" mapstructure:"max_attempts"`
}

// ObservabilityConfig contains logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format" mapstructure:"log_format"`
	// TracingSampleRate controls trace sampling (0 disables tracing)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// PushGateway is the Prometheus Pushgateway URL; empty disables the push
	PushGateway string `yaml:"push_gateway" json:"push_gateway" mapstructure:"push_gateway"`
	Environment string `yaml:"environment" json:"environment" mapstructure:"environment"`
}

// Default returns a Config populated with production defaults.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			TimeRangeMinutes: DefaultTimeRangeMinutes,
			Concurrency:      1,
			SubmitRate:       3,
			SubmitTimeout:    10 * time.Second,
			SafetyMargin:     5 * time.Second,
			PrefixRoot:       DefaultPrefixRoot,
		},
		Store: StoreConfig{
			LeaseTTL: 15 * time.Minute,
		},
		Notify: NotifyConfig{
			WaitTime:    20 * time.Second,
			MaxMessages: 10,
		},
		AWS: AWSConfig{
			MaxAttempts: 3,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			Environment: "production",
		},
	}
}

// Validate checks that values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Export.TimeRangeMinutes <= 0 {
		return fmt.Errorf("export time range must be positive")
	}
	if c.Export.Concurrency <= 0 {
		return fmt.Errorf("export concurrency must be positive")
	}
	if c.Export.SubmitRate < 0 {
		return fmt.Errorf("export submit rate cannot be negative")
	}
	if c.Export.SubmitTimeout <= 0 {
		return fmt.Errorf("export submit timeout must be positive")
	}
	if c.Export.SafetyMargin < 0 {
		return fmt.Errorf("export safety margin cannot be negative")
	}
	if c.Store.LeaseTableName != "" && c.Store.LeaseTTL <= 0 {
		return fmt.Errorf("lease ttl must be positive when a lease table is configured")
	}
	if c.Notify.MaxMessages < 1 || c.Notify.MaxMessages > 10 {
		return fmt.Errorf("notify max messages must be between 1 and 10")
	}
	if c.Notify.WaitTime < 0 || c.Notify.WaitTime > 20*time.Second {
		return fmt.Errorf("notify wait time must be between 0s and 20s")
	}
	if c.AWS.MaxAttempts < 1 {
		return fmt.Errorf("aws max attempts must be at least 1")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1")
	}
	return nil
}

// RequireTable returns an error when no configuration table is set.
func (c *Config) RequireTable() error {
	if c.Store.TableName == "" {
		return fmt.Errorf("configuration table name is required (set %s)", EnvTableName)
	}
	return nil
}

// TimeRange returns the export window length.
func (e *ExportConfig) TimeRange() time.Duration {
	return time.Duration(e.TimeRangeMinutes) * time.Minute
}

// LeaseEnabled reports whether the overlap guard is configured.
func (s *StoreConfig) LeaseEnabled() bool {
	return s.LeaseTableName != ""
}
