package noop

import (
	"context"
	"strings"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/logger"
)

// Completer is the fallback used when no LLM provider is configured. It
// answers chart requests with a fixed line chart spec and everything else
// with a placeholder narrative.
type Completer struct{}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter returns a completer that never calls the network
func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) Name() string {
	return "noop"
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	logger.Debug(ctx, "Noop completer called", "prompt_length", len(prompt))
	if strings.Contains(prompt, `"kind"`) {
		return `{"kind":"line","title":"Revenue Trend","x":"date","y":"revenue","x_label":"Quarter","y_label":"Revenue"}`, nil
	}
	return "- No language model is configured, so no insight was generated.", nil
}
