// Package groq talks to Groq's OpenAI-compatible chat endpoint through the
// eino chat model abstraction.
package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/store"
)

const systemPrompt = "You are a careful financial analyst. Answer in concise markdown unless asked for another format."

// Completer sends prompts to a Groq hosted model
type Completer struct {
	chatModel model.BaseChatModel
	model     string
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter builds the eino chat model from the llm config section
func NewCompleter(ctx context.Context, cfg *store.Config) (*Completer, error) {
	temperature := cfg.LLM.Temperature
	maxTokens := cfg.LLM.MaxTokens

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Timeout:     cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create groq chat model: %w", err)
	}
	return NewWithModel(cm, cfg.LLM.Model), nil
}

// NewWithModel wraps an existing chat model
func NewWithModel(cm model.BaseChatModel, modelName string) *Completer {
	return &Completer{chatModel: cm, model: modelName}
}

func (c *Completer) Name() string {
	return "groq/" + c.model
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("groq generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Content), nil
}
