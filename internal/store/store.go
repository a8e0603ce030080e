// Package store provides the configuration store: the table mapping each log
// group to its export destination, and the optional lease table guarding
// against overlapping invocations.
package store

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrLeaseHeld is returned by Leaser.Acquire when another owner holds a lease
// on an overlapping window of the log group.
var ErrLeaseHeld = stderrors.New("lease held by another invocation")

// Entry is one configured export: a log group and where its exports land.
type Entry struct {
	LogGroupName string `dynamodbav:"logGroupName" json:"logGroupName"`
	Bucket       string `dynamodbav:"s3BucketName" json:"s3BucketName"`
	Prefix       string `dynamodbav:"s3Prefix,omitempty" json:"s3Prefix,omitempty"`
	// CreatedAt is an ISO-8601 timestamp kept as text; older entries carry
	// local times without a zone
	CreatedAt string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	// Invalid holds the decode error of an item whose attributes have the
	// wrong types. Such entries are reported as failed, never exported.
	Invalid string `dynamodbav:"-" json:"-"`
}

// Repository is the read contract the export function depends on.
type Repository interface {
	// ListEntries returns every configured entry. A failure here fails the
	// whole invocation.
	ListEntries(ctx context.Context) ([]Entry, error)
}

// Writer is used by the admin tooling only; the export function never writes
// configuration.
type Writer interface {
	PutEntry(ctx context.Context, entry Entry) error
	DeleteEntry(ctx context.Context, logGroupName string) error
}

// Lease records which invocation is exporting which window of a log group.
// Leases of different owners conflict only when their windows overlap, so
// adjacent on-schedule windows never block each other.
type Lease struct {
	LogGroupName string `dynamodbav:"logGroupName"`
	Owner        string `dynamodbav:"owner"`
	// WindowStart and WindowEnd are epoch milliseconds
	WindowStart int64 `dynamodbav:"windowStart"`
	WindowEnd   int64 `dynamodbav:"windowEnd"`
	// TTL is epoch seconds, consumed by DynamoDB time-to-live
	TTL int64 `dynamodbav:"ttl"`
}

// NewLease returns owner's lease on [from, to] for logGroupName. The record
// may be garbage collected once expires has passed.
func NewLease(logGroupName, owner string, from, to, expires time.Time) Lease {
	return Lease{
		LogGroupName: logGroupName,
		Owner:        owner,
		WindowStart:  from.UnixMilli(),
		WindowEnd:    to.UnixMilli(),
		TTL:          expires.Unix(),
	}
}

// blocks reports whether l prevents next from being taken
func (l Lease) blocks(next Lease) bool {
	return l.Owner != next.Owner && l.WindowEnd > next.WindowStart
}

// Leaser takes per-log-group leases. Acquire returns ErrLeaseHeld when a
// different owner holds a lease whose window ends after the new window
// starts. Release drops the caller's own lease so a later run may retry the
// same window.
type Leaser interface {
	Acquire(ctx context.Context, lease Lease) error
	Release(ctx context.Context, logGroupName, owner string) error
}
