package config

import "errors"

// Sentinel errors returned by Load and Validate.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates an unreadable config file or a value
	// outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired indicates a required setting is empty.
	ErrMissingRequired = errors.New("config: missing required field")
)
