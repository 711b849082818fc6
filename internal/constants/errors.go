package constants

import "errors"

// Configuration errors.
var (
	ErrNoSpaceConfigured = errors.New("no space configured, use --space or set space in the config file")
	ErrNoTokenConfigured = errors.New("no access token configured, use --token or set token in the config file")
)

// Validation errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidWhereClause  = errors.New("invalid --where clause, expected field=value")
)
