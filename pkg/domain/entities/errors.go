package entities

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel for malformed or inconsistent planning input.
// Use errors.Is(err, ErrConfig) to detect any ConfigError.
var ErrConfig = errors.New("invalid planning configuration")

// ConfigError describes a malformed or inconsistent input value.
// A ConfigError aborts the run before any allocation is produced.
type ConfigError struct {
	Field  string // e.g. "calendar", "demand", "rates"
	Key    string // offending month, product or line
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NewConfigError builds a ConfigError with a formatted reason
func NewConfigError(field, key, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Key: key, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
