// Package provision renders the CloudFormation template that deploys the
// exporter: destination bucket, configuration table, optional lease table
// and notification queue, the function with its role, and the schedule.
package provision

import (
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/logexport/pkg/config"
	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Template is a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a template parameter.
type Parameter struct {
	Type          string `json:"Type" yaml:"Type"`
	Description   string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	MinValue      *int   `json:"MinValue,omitempty" yaml:"MinValue,omitempty"`
	AllowedValues []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

// Options selects the optional parts of the stack and the defaults of its
// parameters. It can be loaded from a YAML values file.
type Options struct {
	Description        string `yaml:"description"`
	ScheduleExpression string `yaml:"schedule_expression"`
	TimeRangeMinutes   int    `yaml:"time_range_minutes"`
	TransitionDays     int    `yaml:"transition_days"`
	Concurrency        int    `yaml:"concurrency"`
	FunctionTimeout    int    `yaml:"function_timeout"`
	FunctionMemory     int    `yaml:"function_memory"`
	Architecture       string `yaml:"architecture"`
	Notifications      bool   `yaml:"notifications"`
	Lease              bool   `yaml:"lease"`
}

// DefaultOptions is a daily export of the previous 24 hours, archived to
// Glacier after 30 days.
func DefaultOptions() Options {
	return Options{
		Description:        "Scheduled export of CloudWatch Logs log groups to S3",
		ScheduleExpression: "rate(1 day)",
		TimeRangeMinutes:   config.DefaultTimeRangeMinutes,
		TransitionDays:     30,
		Concurrency:        1,
		FunctionTimeout:    300,
		FunctionMemory:     256,
		Architecture:       "arm64",
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	switch {
	case o.ScheduleExpression == "":
		return errors.New(errors.ErrorTypeValidation, "schedule expression is required")
	case o.TimeRangeMinutes <= 0:
		return errors.New(errors.ErrorTypeValidation, "time range must be positive")
	case o.TransitionDays <= 0:
		return errors.New(errors.ErrorTypeValidation, "transition days must be positive")
	case o.Concurrency < 1:
		return errors.New(errors.ErrorTypeValidation, "concurrency must be at least 1")
	case o.FunctionTimeout <= 0 || o.FunctionTimeout > 900:
		return errors.New(errors.ErrorTypeValidation, "function timeout must be between 1 and 900 seconds")
	case o.FunctionMemory < 128:
		return errors.New(errors.ErrorTypeValidation, "function memory must be at least 128 MB")
	case o.Architecture != "arm64" && o.Architecture != "x86_64":
		return errors.New(errors.ErrorTypeValidation, "architecture must be arm64 or x86_64")
	}
	return nil
}

// ToYAML renders the template as YAML
func ToYAML(t *Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// ToJSON renders the template as indented JSON
func ToJSON(t *Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
