// Package export submits log-group export tasks to CloudWatch Logs and lists
// the log groups available for export.
//
// Submission is fire-and-forget: the service returns a task id as soon as
// the task is queued and nothing here polls it afterwards.
package export

import (
	"context"
	"strings"
	"time"

	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Request is one export of a log group over [From, To] into bucket/prefix.
type Request struct {
	LogGroupName string
	From         time.Time
	To           time.Time
	Bucket       string
	Prefix       string
	// TaskName is optional; the service generates one when empty
	TaskName string
}

// Task is the service's acknowledgement of a Request.
type Task struct {
	ID      string
	Request Request
}

// Destination renders the request target as s3://bucket/prefix
func (r Request) Destination() string {
	if r.Prefix == "" {
		return "s3://" + r.Bucket
	}
	return "s3://" + r.Bucket + "/" + strings.TrimPrefix(r.Prefix, "/")
}

// Validate rejects requests the service would refuse outright
func (r Request) Validate() error {
	switch {
	case r.LogGroupName == "":
		return errors.New(errors.ErrorTypeValidation, "log group name is required")
	case r.Bucket == "":
		return errors.New(errors.ErrorTypeValidation, "destination bucket is required").
			WithDetail("log_group", r.LogGroupName)
	case !r.To.After(r.From):
		return errors.New(errors.ErrorTypeValidation, "export window end must be after its start").
			WithDetail("log_group", r.LogGroupName)
	}
	return nil
}

// Submitter starts export tasks.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Task, error)
}

// LogGroup describes a log group as shown by the admin tooling.
type LogGroup struct {
	Name         string
	StoredBytes  int64
	CreationTime time.Time
}

// StoredMB is the stored size in megabytes
func (g LogGroup) StoredMB() float64 {
	return float64(g.StoredBytes) / (1024 * 1024)
}

// Lister enumerates log groups.
type Lister interface {
	ListLogGroups(ctx context.Context) ([]LogGroup, error)
}
