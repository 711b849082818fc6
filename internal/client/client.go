package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/internal/graph"
	"github.com/fivetwenty-io/delivery-client/internal/http"
	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Static errors for err113 compliance.
var (
	ErrAPIEndpointRequired     = errors.New("API endpoint is required")
	ErrFetcherRequired         = errors.New("fetcher is required")
	ErrUnsupportedResourceType = errors.New("unsupported resource type")
)

// Client implements the cda.Client interface. Each Client is one session:
// it owns a registry of every resource it has materialized.
type Client struct {
	fetcher       graph.Fetcher
	space         string
	environment   string
	defaultLocale string
	sessionID     string
	logger        cda.Logger
	metrics       *fetchMetrics

	registry     *registry.Registry
	materializer *graph.Materializer

	// loads deduplicates concurrent fetches of the same identity.
	loads singleflight.Group

	// aliases maps requested identities to fetched resources registered
	// under a different locale.
	aliasMu sync.Mutex
	aliases map[cda.Identity]cda.Resource
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *cda.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := 1 * time.Second
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a session that talks to the delivery API over HTTP.
func New(config *cda.Config) (*Client, error) {
	if config == nil {
		return nil, cda.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	var tokenManager http.TokenManager
	if config.AccessToken != "" {
		tokenManager = http.StaticToken(config.AccessToken)
	}

	httpClient := http.NewClient(config.APIEndpoint, tokenManager, createHTTPClientOptions(config)...)

	return NewWithFetcher(config, NewTransport(httpClient, config.SpaceID, environmentOf(config)))
}

// NewWithFetcher creates a session on top of a custom transport.
func NewWithFetcher(config *cda.Config, fetcher graph.Fetcher) (*Client, error) {
	if config == nil {
		return nil, cda.ErrConfigRequired
	}

	if config.SpaceID == "" {
		return nil, cda.ErrSpaceIDRequired
	}

	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	client := &Client{
		fetcher:       fetcher,
		space:         config.SpaceID,
		environment:   environmentOf(config),
		defaultLocale: config.DefaultLocale,
		sessionID:     uuid.NewString(),
		aliases:       make(map[cda.Identity]cda.Resource),
	}

	var base cda.Logger = nopLogger{}
	if config.Logger != nil {
		base = config.Logger
	}

	client.logger = &sessionLogger{logger: base, session: client.sessionID}

	var registryOpts []registry.Option

	if config.MetricsRegisterer != nil {
		registryMetrics, err := registry.NewMetrics(config.MetricsRegisterer, client.sessionID)
		if err != nil {
			return nil, fmt.Errorf("creating session metrics: %w", err)
		}

		client.metrics, err = newFetchMetrics(config.MetricsRegisterer, client.sessionID)
		if err != nil {
			return nil, fmt.Errorf("creating session metrics: %w", err)
		}

		registryOpts = append(registryOpts, registry.WithMetrics(registryMetrics))
	}

	client.registry = registry.New(client.space, client.environment, registryOpts...)
	client.materializer = graph.NewMaterializer(client.registry, client,
		graph.WithDefaultLocale(client.defaultLocale),
		graph.WithLogger(client.logger))

	return client, nil
}

func environmentOf(config *cda.Config) string {
	if config.Environment == "" {
		return constants.DefaultEnvironment
	}

	return config.Environment
}

// SessionID implements cda.Client.SessionID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// DefaultLocale implements cda.Client.DefaultLocale.
func (c *Client) DefaultLocale() string {
	return c.defaultLocale
}

// Registered returns the identities materialized so far, sorted.
func (c *Client) Registered() []cda.Identity {
	return c.registry.Identities()
}

// identity returns the identity of a resource in this session.
func (c *Client) identity(resourceType cda.ResourceType, id, locale string) cda.Identity {
	identity := cda.Identity{
		Space:       c.space,
		Environment: c.environment,
		Type:        resourceType,
		ID:          id,
	}

	if resourceType == cda.TypeSpace {
		identity.ID = c.space
	}

	if resourceType.IsLocalized() {
		identity.Locale = c.requestLocale(locale)
	}

	return identity
}

// requestLocale maps an unspecified locale to the session default.
func (c *Client) requestLocale(locale string) string {
	if locale == "" {
		return c.defaultLocale
	}

	return locale
}

func (c *Client) normalizeOptions(locale string) graph.Options {
	return graph.Options{
		Space:         c.space,
		Environment:   c.environment,
		Locale:        locale,
		DefaultLocale: c.defaultLocale,
	}
}

// loggerAdapter adapts cda.Logger to http.Logger.
type loggerAdapter struct {
	logger cda.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}

// sessionLogger adds the session id to every log record.
type sessionLogger struct {
	logger  cda.Logger
	session string
}

func (l *sessionLogger) with(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for key, value := range fields {
		out[key] = value
	}

	out["session"] = l.session

	return out
}

func (l *sessionLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, l.with(fields))
}

func (l *sessionLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, l.with(fields))
}

func (l *sessionLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, l.with(fields))
}

func (l *sessionLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, l.with(fields))
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
