package constants

import "time"

// API endpoints and defaults.
const (
	// DeliveryAPIEndpoint is the delivery CDN host.
	DeliveryAPIEndpoint = "https://cdn.contentful.com"

	// PreviewAPIEndpoint serves unpublished content.
	PreviewAPIEndpoint = "https://preview.contentful.com"

	// DefaultEnvironment is used when no environment is configured.
	DefaultEnvironment = "master"

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "delivery-client-go/1.0"

	// ContentTypeJSON is the media type requested from the API.
	ContentTypeJSON = "application/json"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Pagination and display limits.
const (
	// DefaultPageSize is the number of items requested when no limit is set.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the API serves.
	MaxPageSize = 1000
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// Format constants.
const (
	// FormatAuto picks table on a terminal and JSON otherwise.
	FormatAuto = "auto"

	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Metrics naming.
const (
	// MetricsNamespace prefixes every metric the client exports.
	MetricsNamespace = "delivery_client"
)
