// Package awsclient loads the shared AWS SDK configuration used by every
// service client in logexport.
package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/ajitpratap0/logexport/pkg/config"
	"github.com/ajitpratap0/logexport/pkg/errors"
)

// Load resolves credentials and region from the default chain, applying the
// region, endpoint override and retry attempts from cfg.
func Load(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), maxAttempts(cfg))
		}),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}

func maxAttempts(cfg config.AWSConfig) int {
	if cfg.MaxAttempts < 1 {
		return 1
	}
	return cfg.MaxAttempts
}
