package llm

import (
	"context"

	"sector-insights/internal/api"
	"sector-insights/internal/interfaces"
)

// retryingCompleter retries transient provider failures and converts the
// final failure into *ServiceError
type retryingCompleter struct {
	next   interfaces.Completer
	config *api.RetryConfig
}

var _ interfaces.Completer = (*retryingCompleter)(nil)

// WithRetry wraps c with bounded retry using exponential backoff and jitter
func WithRetry(c interfaces.Completer, config *api.RetryConfig) interfaces.Completer {
	return &retryingCompleter{next: c, config: config}
}

func (r *retryingCompleter) Name() string {
	return r.next.Name()
}

func (r *retryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var (
		out      string
		attempts int
	)
	err := api.Retry(ctx, r.config, func(attempt int) error {
		attempts = attempt
		text, err := r.next.Complete(ctx, prompt)
		if err != nil {
			if !retryable(err) {
				return api.Permanent(err)
			}
			return err
		}
		if text == "" {
			return ErrEmptyResponse
		}
		out = text
		return nil
	})
	if err != nil {
		return "", &ServiceError{Provider: r.next.Name(), Attempts: attempts, Err: err}
	}
	return out, nil
}
