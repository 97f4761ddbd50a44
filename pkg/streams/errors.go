package streams

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a stream count or stream length
// is out of range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError provides structured information about a rejected configuration.
type ConfigError struct {
	Op    string // Operation that rejected the value (e.g., "generate", "init")
	Field string // Offending field (e.g., "streams", "stream_length")
	Value int    // Offending value
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s=%d: %v", e.Op, e.Field, e.Value, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ConfigError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// InvalidConfigurationError creates a ConfigError for the given field.
func InvalidConfigurationError(op, field string, value int) error {
	return &ConfigError{
		Op:    op,
		Field: field,
		Value: value,
		Cause: ErrInvalidConfiguration,
	}
}

// IsInvalidConfiguration returns true if err is an invalid configuration error.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}
