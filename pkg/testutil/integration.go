package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/logexport/internal/awsclient"
	"github.com/ajitpratap0/logexport/pkg/config"
)

// EnvEndpoint points integration tests at an AWS-compatible endpoint such
// as LocalStack. Integration tests are skipped when it is unset.
const EnvEndpoint = "LOGEXPORT_TEST_ENDPOINT"

// IntegrationTestSuite provides an AWS configuration aimed at the test
// endpoint and a suite-scoped context.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	awsCfg    aws.Config
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	IntegrationTest(s.T())

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	// LocalStack accepts any static credentials
	s.T().Setenv("AWS_ACCESS_KEY_ID", "test")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg, err := awsclient.Load(s.ctx, config.AWSConfig{
		Region:      "us-east-1",
		Endpoint:    os.Getenv(EnvEndpoint),
		MaxAttempts: 3,
	})
	require.NoError(s.T(), err)
	s.awsCfg = cfg

	s.T().Logf("integration suite using endpoint %s", os.Getenv(EnvEndpoint))
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
	s.T().Logf("integration suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// AWS returns the SDK configuration for the test endpoint
func (s *IntegrationTestSuite) AWS() aws.Config {
	return s.awsCfg
}

// UniqueName returns prefix followed by a suffix unique to this test run,
// suitable for table and bucket names.
func (s *IntegrationTestSuite) UniqueName(prefix string) string {
	return strings.ToLower(prefix) + "-" + uuid.NewString()[:8]
}

// IntegrationTest skips t unless an integration endpoint is configured or
// the run is short.
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(EnvEndpoint) == "" {
		t.Skipf("skipping integration test: %s not set", EnvEndpoint)
	}
}
