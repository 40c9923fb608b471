package claude

import (
	"context"
	"errors"
	"strings"

	"sector-insights/internal/api"
	"sector-insights/internal/interfaces"
	"sector-insights/internal/store"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1"
	defaultModel    = "claude-3-5-haiku-latest"
	apiVersion      = "2023-06-01"
)

// Completer calls the Anthropic Messages API
type Completer struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float32
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter creates a Messages API client. llm.base_url points it at a proxy.
func NewCompleter(cfg *store.Config) *Completer {
	endpoint := cfg.LLM.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = defaultModel
	}

	return &Completer{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(endpoint, "/")),
			api.WithTimeout(cfg.LLMTimeout()),
			api.WithHeader("x-api-key", cfg.LLM.APIKey),
			api.WithHeader("anthropic-version", apiVersion),
			api.WithLogging(true),
		),
		model:       modelName,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}
}

func (c *Completer) Name() string {
	return "claude/" + c.model
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := c.client.Post(ctx, "/messages", reqBody)
	if err != nil {
		return "", err
	}

	var mr messagesResponse
	if err := resp.ParseJSON(&mr); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("claude response has no text content")
	}
	return strings.TrimSpace(sb.String()), nil
}
