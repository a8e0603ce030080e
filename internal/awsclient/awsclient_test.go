package awsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/logexport/pkg/config"
)

func TestLoad_AppliesOverrides(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	cfg, err := Load(context.Background(), config.AWSConfig{
		Region:      "eu-west-1",
		Endpoint:    "http://localhost:4566",
		MaxAttempts: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Region)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
	require.NotNil(t, cfg.Retryer)
	assert.Equal(t, 5, cfg.Retryer().MaxAttempts())
}

func TestMaxAttempts_FloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, maxAttempts(config.AWSConfig{MaxAttempts: 0}))
	assert.Equal(t, 4, maxAttempts(config.AWSConfig{MaxAttempts: 4}))
}
