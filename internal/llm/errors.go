// Package llm holds what every language model provider shares: the error
// returned to callers and the retry wrapper.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"sector-insights/internal/api"
)

// ServiceError is returned when the language model call fails
type ServiceError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("llm provider %s failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// StatusError lets providers report the HTTP status behind a failure so the
// retry policy can tell quota and outage errors from bad requests
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Permanent reports statuses that will not improve on retry
func (e *StatusError) Permanent() bool {
	return e.StatusCode != http.StatusTooManyRequests && e.StatusCode < 500 && e.StatusCode >= 400
}

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// IsServiceError reports whether err came from a language model call
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func retryable(err error) bool {
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return api.IsRetryable(err)
}
