package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for registry lookups.
type ErrorCategory string

const (
	// ErrorTimeout indicates the registry did not answer within the call budget
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the registry returned a body we could not decode
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates the API key was rejected
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the registry is unavailable or answered with an unexpected status
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorConfiguration indicates the request could not be built, usually a bad base URL
	ErrorConfiguration ErrorCategory = "configuration"
)

// LookupError is a registry failure. "Not found" is never a LookupError;
// it is a successful lookup with no record.
type LookupError struct {
	Category   ErrorCategory
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *LookupError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("dbs registry [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("dbs registry [%s]: %s", e.Category, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Underlying
}

// NewLookupError sets Retryable for transient categories (timeout, outage, rate-limited).
func NewLookupError(category ErrorCategory, message string, underlying error) *LookupError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &LookupError{
		Category:   category,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

func newStatusError(category ErrorCategory, status int, message string) *LookupError {
	e := NewLookupError(category, message, nil)
	e.StatusCode = status
	return e
}

// AsLookupError unwraps err into a *LookupError.
func AsLookupError(err error) (*LookupError, bool) {
	var le *LookupError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	if le, ok := AsLookupError(err); ok {
		return le.Retryable
	}
	return false
}
