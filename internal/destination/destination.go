// Package destination verifies that the buckets named by configuration
// entries are reachable before export tasks are pointed at them.
package destination

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

// S3API is the subset of the S3 client used for checks.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// Check is the verdict for one bucket
type Check struct {
	Bucket     string
	LogGroups  []string
	Err        error
	ErrorType  errors.ErrorType
	Accessible bool
}

// Checker runs HeadBucket against configured destinations.
type Checker struct {
	client S3API
}

// NewChecker returns a checker using client
func NewChecker(client S3API) *Checker {
	return &Checker{client: client}
}

// CheckBucket returns nil when bucket exists and is reachable
func (c *Checker) CheckBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return errors.New(errors.ErrorTypeValidation, "bucket name is empty")
	}
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to access S3 bucket").
			WithDetail("bucket", bucket)
	}
	return nil
}

// CheckEntries checks every distinct bucket referenced by entries once.
// Results are sorted by bucket name.
func (c *Checker) CheckEntries(ctx context.Context, entries []store.Entry) []Check {
	byBucket := make(map[string][]string)
	for _, e := range entries {
		byBucket[e.Bucket] = append(byBucket[e.Bucket], e.LogGroupName)
	}

	buckets := make([]string, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)

	checks := make([]Check, 0, len(buckets))
	for _, b := range buckets {
		check := Check{Bucket: b, LogGroups: byBucket[b], Accessible: true}
		if err := c.CheckBucket(ctx, b); err != nil {
			check.Accessible = false
			check.Err = err
			check.ErrorType = errors.GetType(err)
			logger.WithContext(ctx).Warn("destination bucket not accessible",
				zap.String("bucket", b),
				zap.Strings("log_groups", check.LogGroups),
				zap.Error(err))
		}
		checks = append(checks, check)
	}
	return checks
}
