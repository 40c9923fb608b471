package llmobs

import (
	"context"
	"time"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/logger"
	"sector-insights/internal/trace"
)

// observableCompleter wraps a Completer with logging and tracing
type observableCompleter struct {
	completer interfaces.Completer
}

var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{
		completer: completer,
	}
}

func (oc *observableCompleter) Name() string {
	return oc.completer.Name()
}

// Complete sends the prompt with observability
func (oc *observableCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Skip(1) reports the caller rather than this wrapper
	logger.DebugSkip(ctx, 1, "Requesting completion",
		"provider", oc.completer.Name(),
		"prompt_length", len(prompt),
	)

	start := time.Now()
	text, err := oc.completer.Complete(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err,
			"provider", oc.completer.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Completion received",
		"provider", oc.completer.Name(),
		"response_length", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
