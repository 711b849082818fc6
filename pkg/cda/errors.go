package cda

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrOutOfRange          = errors.New("index out of range")
	ErrFieldNotFound       = errors.New("field not found")
	ErrNotALink            = errors.New("field is not a link")
	ErrUnexpectedLinkType  = errors.New("link resolved to an unexpected resource type")
	ErrNoLinkLoader        = errors.New("link has no loader")
	ErrConfigRequired      = errors.New("config is required")
	ErrSpaceIDRequired     = errors.New("space ID is required")
	ErrAccessTokenRequired = errors.New("access token is required")
)

// Error IDs reported in sys.id of delivery API error bodies.
const (
	ErrorIDNotFound           = "NotFound"
	ErrorIDAccessTokenInvalid = "AccessTokenInvalid"
	ErrorIDBadRequest         = "BadRequest"
	ErrorIDInvalidQuery       = "InvalidQuery"
	ErrorIDRateLimitExceeded  = "RateLimitExceeded"
	ErrorIDServerError        = "ServerError"
	ErrorIDNotResolvable      = "notResolvable"
)

// APIError represents an error body returned by the delivery API.
type APIError struct {
	StatusCode int    `json:"-"                   yaml:"-"`
	Sys        Sys    `json:"sys"                 yaml:"sys"`
	Message    string `json:"message"             yaml:"message"`
	RequestID  string `json:"requestId,omitempty" yaml:"requestId,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	id := e.Sys.ID
	if id == "" {
		id = http.StatusText(e.StatusCode)
	}

	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status: %d, request: %s)", id, e.Message, e.StatusCode, e.RequestID)
	}

	return fmt.Sprintf("%s: %s (status: %d)", id, e.Message, e.StatusCode)
}

// ParseAPIError builds an APIError from a non-2xx response. Bodies that are not
// a delivery API error document still produce an APIError carrying the status.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{}

	err := json.Unmarshal(body, apiErr)
	if err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}

	apiErr.StatusCode = statusCode

	return apiErr
}

// NotFoundError reports that an identity does not exist remotely.
type NotFoundError struct {
	Identity Identity
	Err      error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Identity)
}

// Unwrap returns the underlying transport error, if any.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports an envelope or resource missing required
// structural fields. It is fatal for the whole operation.
type MalformedResponseError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Path == "" {
		return "malformed response: " + e.Reason
	}

	return fmt.Sprintf("malformed response: %s: %s", e.Path, e.Reason)
}

// LocaleNotFoundError reports that a field has no value for the requested
// locale and no default locale is configured to fall back to.
type LocaleNotFoundError struct {
	Identity Identity
	Field    string
	Locale   string
}

// Error implements the error interface.
func (e *LocaleNotFoundError) Error() string {
	return fmt.Sprintf("%s: field %q has no value for locale %q and no default locale is configured", e.Identity, e.Field, e.Locale)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	notFound := &NotFoundError{}
	if errors.As(err, &notFound) {
		return true
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound || apiErr.Sys.ID == ErrorIDNotFound
	}

	return false
}

// IsMalformed checks if the error is a malformed response error.
func IsMalformed(err error) bool {
	malformed := &MalformedResponseError{}

	return errors.As(err, &malformed)
}

// IsUnauthorized checks if the error is an authentication error.
func IsUnauthorized(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.Sys.ID == ErrorIDAccessTokenInvalid
	}

	return false
}
