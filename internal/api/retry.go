package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sector-insights/internal/logger"
)

// HTTPError is returned by Do when the server answers with status >= 400
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.URL, body)
}

// Temporary reports whether the status is worth retrying
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// PermanentError marks an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
func (e *PermanentError) Permanent() bool { return true }

// Permanent wraps err so Retry gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryConfig configures retry behavior. Jitter is the randomization factor
// applied to every wait (0.5 means +/-50%).
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Jitter:      0.5,
	}
}

// IsRetryable classifies an error from Do. Transport failures, 429 and 5xx
// are retryable. Other HTTP statuses and context cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm interface{ Permanent() bool }
	if errors.As(err, &perm) && perm.Permanent() {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}

// Retry runs op until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. Waits grow exponentially from InitialWait up to
// MaxWait with jitter. The attempt number passed to op starts at 1.
func Retry(ctx context.Context, config *RetryConfig, op func(attempt int) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = config.InitialWait
	eb.MaxInterval = config.MaxWait
	eb.RandomizationFactor = config.Jitter
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)

	attempt := 0
	var lastErr error
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn(ctx, "Request failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "wait", wait, "error", err)
	})
	if err == nil {
		return nil
	}
	if attempt >= maxAttempts && IsRetryable(lastErr) {
		return fmt.Errorf("all %d retry attempts failed: %w", maxAttempts, lastErr)
	}
	return err
}
