//go:build integration

package integration

import (
	"os"
	"testing"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
	"github.com/fivetwenty-io/delivery-client/pkg/cdaclient"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	SpaceID       string
	AccessToken   string
	Environment   string
	APIEndpoint   string
	DefaultLocale string
	Verbose       bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		SpaceID:       os.Getenv("CDA_SPACE"),
		AccessToken:   os.Getenv("CDA_TOKEN"),
		Environment:   os.Getenv("CDA_ENVIRONMENT"),
		APIEndpoint:   os.Getenv("CDA_API"),
		DefaultLocale: envOr("CDA_DEFAULT_LOCALE", "en-US"),
		Verbose:       os.Getenv("CDA_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips the test when the live API is not configured
func (c *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if c.SpaceID == "" || c.AccessToken == "" {
		t.Skip("Skipping integration test: CDA_SPACE and CDA_TOKEN must be set")
	}
}

// NewClient creates a fresh session against the configured space
func (c *TestConfig) NewClient(t *testing.T) cda.Client {
	t.Helper()

	config := &cda.Config{
		SpaceID:       c.SpaceID,
		AccessToken:   c.AccessToken,
		Environment:   c.Environment,
		APIEndpoint:   c.APIEndpoint,
		DefaultLocale: c.DefaultLocale,
	}

	if c.Verbose {
		config.Logger = &testLogger{t: t}
		config.Debug = true
	}

	client, err := cdaclient.New(config)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return client
}

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG %s %v", msg, fields) }
func (l *testLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO %s %v", msg, fields) }
func (l *testLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN %s %v", msg, fields) }
func (l *testLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR %s %v", msg, fields) }

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
