package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrOutOfRange marks a value outside its permitted bounds.
	ErrOutOfRange = errors.New("out of range")
	// ErrNotAllowed marks a value that is not in its allowed set.
	ErrNotAllowed = errors.New("not allowed")
)

// FieldError is a rule failure for one configuration field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ConfigValidator chains cross-field rules that struct tags cannot express.
// Every failing rule is kept; Validate reports them together.
type ConfigValidator struct {
	prefix string
	errs   []error
}

// NewConfigValidator starts a rule chain. prefix qualifies field names in
// errors, e.g. "config.speed".
func NewConfigValidator(prefix string) *ConfigValidator {
	return &ConfigValidator{prefix: prefix}
}

func (cv *ConfigValidator) fail(field string, err error) {
	if cv.prefix != "" {
		field = cv.prefix + "." + field
	}
	cv.errs = append(cv.errs, &FieldError{Field: field, Err: err})
}

// RangeDuration requires min <= value <= max.
func (cv *ConfigValidator) RangeDuration(field string, value, min, max time.Duration) *ConfigValidator {
	if value < min || value > max {
		cv.fail(field, fmt.Errorf("%v not in [%v, %v]: %w", value, min, max, ErrOutOfRange))
	}
	return cv
}

// OneOf requires value to match one of allowed, ignoring case.
func (cv *ConfigValidator) OneOf(field, value string, allowed ...string) *ConfigValidator {
	if !slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, value) }) {
		cv.fail(field, fmt.Errorf("%q, want one of %s: %w", value, strings.Join(allowed, "|"), ErrNotAllowed))
	}
	return cv
}

// Custom records the error returned by fn, if any.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.fail(field, err)
	}
	return cv
}

// When applies rules only if condition holds.
func (cv *ConfigValidator) When(condition bool, rules func(*ConfigValidator)) *ConfigValidator {
	if condition {
		rules(cv)
	}
	return cv
}

// Errors returns the failures collected so far.
func (cv *ConfigValidator) Errors() []error {
	return cv.errs
}

// Validate returns every failure joined, or nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errs...)
}

// ClampDuration limits value to [lo, hi].
func ClampDuration(value, lo, hi time.Duration) time.Duration {
	return min(max(value, lo), hi)
}
