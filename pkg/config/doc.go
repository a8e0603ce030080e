// Package config provides configuration management for logexport.
//
// # Sources
//
// LoadRuntime merges, in increasing order of precedence:
//   - the defaults returned by Default
//   - an optional YAML file (the --config flag of the CLI)
//   - the process environment, using the variable names of the deployment
//     contract (LOGS_CONFIG_TABLE_NAME, EXPORT_TIME_RANGE_MINUTES, ...)
//
// Load is a plain YAML reader with ${VAR} and ${VAR:-fallback}
// substitution for hand-edited files such as template parameters.
//
// # Validation
//
// Validate checks numeric ranges only. Commands that need the configuration
// table call RequireTable, so the notification consumer can run without one.
package config
