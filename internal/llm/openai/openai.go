// Package openai calls OpenAI chat completions through the official SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/llm"
	"sector-insights/internal/store"
)

const defaultModel = "gpt-4o-mini"

// Completer sends prompts to an OpenAI chat model
type Completer struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter creates an SDK client. SDK retries are disabled because the
// caller wraps every provider with its own retry policy.
func NewCompleter(cfg *store.Config) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.LLMTimeout()),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = defaultModel
	}

	return &Completer{
		client:      openai.NewClient(opts...),
		model:       modelName,
		temperature: float64(cfg.LLM.Temperature),
		maxTokens:   int64(cfg.LLM.MaxTokens),
	}
}

func (c *Completer) Name() string {
	return "openai/" + c.model
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: param.NewOpt(c.temperature),
		MaxTokens:   param.NewOpt(c.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
