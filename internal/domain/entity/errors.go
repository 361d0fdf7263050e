package entity

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNoAvailableSource indicates that no source could produce content.
	ErrNoAvailableSource = errors.New("no available source")

	// ErrSourceIndexOutOfRange indicates that a pinned source index is outside [1, count].
	ErrSourceIndexOutOfRange = errors.New("source index out of range")

	// ErrUnknownContentType indicates that the content type is not in the catalog.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrUnknownParser indicates that a parser name is not a known parser kind.
	ErrUnknownParser = errors.New("unknown parser")

	// ErrEmptyContent indicates that a payload decoded into zero usable items.
	ErrEmptyContent = errors.New("empty content")

	// ErrUnsupportedFormat indicates that the requested output format is not offered.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnexpectedContentType indicates that an upstream answered with a
	// media type its parser cannot decode.
	ErrUnexpectedContentType = errors.New("unexpected upstream content type")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TransportError is a connection-level failure: DNS, refused connections,
// resets, or an attempt that ran past its timeout.
type TransportError struct {
	URL     string
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	kind := "transport error"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s fetching %s: %v", kind, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports that transport failures are always worth another attempt.
func (e *TransportError) Retryable() bool {
	return true
}

// HTTPStatusError is a non-2xx upstream response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	// RetryAfter is the numeric Retry-After hint, zero when absent.
	RetryAfter    time.Duration
	HasRetryAfter bool
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Retryable reports whether the status is one of 429, 500, 502, 503 or 504.
func (e *HTTPStatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetryAfterHint returns the server-provided delay before the next attempt.
func (e *HTTPStatusError) RetryAfterHint() (time.Duration, bool) {
	return e.RetryAfter, e.HasRetryAfter
}

// ParseError is a structural mismatch between a payload and its decoder.
type ParseError struct {
	Parser  ParserKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parser %s: %s: %v", e.Parser, e.Message, e.Err)
	}
	return fmt.Sprintf("parser %s: %s", e.Parser, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NoAvailableSourceError is the terminal failure of a fetch chain.
// Cause holds the last attempt's error, if any attempt was made.
type NoAvailableSourceError struct {
	ContentType string
	Cause       error
}

// Error implements the error interface.
func (e *NoAvailableSourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no available source for %q: %v", e.ContentType, e.Cause)
	}
	return fmt.Sprintf("no available source for %q", e.ContentType)
}

// Unwrap returns the last attempt's error.
func (e *NoAvailableSourceError) Unwrap() error {
	return e.Cause
}

// Is makes every NoAvailableSourceError match ErrNoAvailableSource.
func (e *NoAvailableSourceError) Is(target error) bool {
	return target == ErrNoAvailableSource
}

// ConfigurationError reports an invalid configuration value or argument.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on '%s': %s", e.Field, e.Message)
}

// Unwrap returns the sentinel describing the failure.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
