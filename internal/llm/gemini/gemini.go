// Package gemini calls Google's Gemini models through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/llm"
	"sector-insights/internal/store"
)

const defaultModel = "gemini-2.0-flash"

// Completer sends prompts to a Gemini model
type Completer struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter creates the genai client for the Gemini API backend.
// llm.base_url points it at a proxy.
func NewCompleter(ctx context.Context, cfg *store.Config) (*Completer, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.LLM.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.LLM.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = defaultModel
	}

	return &Completer{
		client: client,
		model:  modelName,
		config: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(cfg.LLM.Temperature),
		},
	}, nil
}

func (c *Completer) Name() string {
	return "gemini/" + c.model
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{StatusCode: apiErr.Code, Err: err}
		}
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}
