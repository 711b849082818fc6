package cda

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EntriesClient provides access to entries.
type EntriesClient interface {
	// GetEntry returns one entry. An empty locale means the default locale
	// of the session; LocaleAll returns an object exposing every locale.
	GetEntry(ctx context.Context, id, locale string) (*Entry, error)
	GetEntries(ctx context.Context, query *Query) (*ResourceArray[*Entry], error)
}

// AssetsClient provides access to assets.
type AssetsClient interface {
	GetAsset(ctx context.Context, id, locale string) (*Asset, error)
	GetAssets(ctx context.Context, query *Query) (*ResourceArray[*Asset], error)
}

// SpaceClient provides access to space-level resources.
type SpaceClient interface {
	GetContentType(ctx context.Context, id string) (*ContentType, error)
	GetContentTypes(ctx context.Context, query *Query) (*ResourceArray[*ContentType], error)
	GetSpace(ctx context.Context) (*Space, error)
}

// Client is one delivery API session.
//
// Every object obtained through a Client, directly or by resolving links, is
// owned by that Client: asking twice for the same identity returns the same
// instance. Two Clients never share instances.
type Client interface {
	EntriesClient
	AssetsClient
	SpaceClient

	// SessionID identifies the session in logs and metrics.
	SessionID() string
	// DefaultLocale returns the configured default locale, possibly "".
	DefaultLocale() string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a cda.Client.
//
// # Locales
//
// DefaultLocale is used when a getter is called without a locale and as the
// fallback when an all-locales object has no value for a requested locale.
// When it is empty, requests go out without a locale parameter (the API
// answers in the space default) and all-locales lookups of a missing locale
// fail with LocaleNotFoundError.
//
// # Timeouts and retries
//
// Per-request timeouts should generally be controlled via the context passed
// to client methods. Retry behavior can be tuned via RetryMax/RetryWaitMin/
// RetryWaitMax; 429 and 5xx responses and connection errors are retried.
type Config struct {
	// Required fields
	// SpaceID: the space all requests are scoped to.
	SpaceID string
	// AccessToken: delivery (or preview) API key.
	AccessToken string

	// Optional configurations
	// Environment: environment within the space. Defaults to "master".
	Environment string
	// APIEndpoint: base URL. Defaults to the delivery CDN, or the preview
	// host when Preview is set.
	APIEndpoint string
	// Preview: target the preview API instead of the delivery CDN.
	Preview bool
	// DefaultLocale: see "Locales" above.
	DefaultLocale string
	// HTTPTimeout: overall timeout of a single HTTP attempt.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures. If 0, a
	// sensible default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// MetricsRegisterer: when set, session metrics are registered here.
	MetricsRegisterer prometheus.Registerer
}
