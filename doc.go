// Package logexport exports CloudWatch Logs log groups to S3 on a schedule.
//
// A DynamoDB configuration table lists which log groups to export and where:
// one item per log group naming the destination bucket and an optional key
// prefix. On every scheduled trigger the export function reads the whole
// table, computes one time window ending at the trigger time, and submits a
// CloudWatch Logs export task per entry. A failure for one log group is
// recorded in that entry's result and never stops the others.
//
// # Components
//
//   - internal/orchestrator: the export cycle (window, fan-out, deadline
//     budget, per-entry results and the function response)
//   - internal/store: configuration table and per log group leases
//   - internal/export: the CloudWatch Logs export API
//   - internal/admin: interactive maintenance of the configuration table
//   - internal/destination: reachability checks for destination buckets
//   - internal/notify: artifact notifications from the destination bucket
//   - internal/provision: the CloudFormation template for the deployment
//   - cmd/logexport: the Lambda entry point and the operator CLI
//
// # Quick Start
//
// Render and deploy the stack, then add log groups:
//
//	scripts/deploy.sh log-export my-artifacts-bucket
//	logexport add log-export-config
//	logexport run --timeout 2m
//
// # Configuration
//
// The function is configured through its environment:
//
//	LOGS_CONFIG_TABLE_NAME      configuration table (required)
//	EXPORT_TIME_RANGE_MINUTES   window length, default 1440
//	EXPORT_CONCURRENCY          submissions in flight, default 1
//	EXPORT_LEASE_TABLE_NAME     enables the overlap guard
//
// The CLI accepts the same settings from a YAML file given with --config;
// environment variables take precedence.
package logexport
