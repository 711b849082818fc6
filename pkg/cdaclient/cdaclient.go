// Package cdaclient provides the main entry point for creating delivery API clients.
package cdaclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/delivery-client/internal/client"
	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// New creates a new delivery API client. Every client is an independent
// session with its own identity registry.
func New(config *cda.Config) (cda.Client, error) {
	normalized, err := Normalize(config)
	if err != nil {
		return nil, err
	}

	// Use the internal client implementation
	c, err := client.New(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client for a space with default settings.
func NewWithToken(spaceID, accessToken string) (cda.Client, error) {
	return New(&cda.Config{
		SpaceID:     spaceID,
		AccessToken: accessToken,
	})
}

// Normalize validates config and returns a copy with defaults applied.
func Normalize(config *cda.Config) (*cda.Config, error) {
	if config == nil {
		return nil, cda.ErrConfigRequired
	}

	if config.SpaceID == "" {
		return nil, cda.ErrSpaceIDRequired
	}

	if config.AccessToken == "" {
		return nil, cda.ErrAccessTokenRequired
	}

	normalized := *config

	if normalized.Environment == "" {
		normalized.Environment = constants.DefaultEnvironment
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(normalized.APIEndpoint, "/")

	switch {
	case apiEndpoint == "" && normalized.Preview:
		apiEndpoint = constants.PreviewAPIEndpoint
	case apiEndpoint == "":
		apiEndpoint = constants.DeliveryAPIEndpoint
	case !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://"):
		apiEndpoint = "https://" + apiEndpoint
	}

	normalized.APIEndpoint = apiEndpoint

	return &normalized, nil
}
