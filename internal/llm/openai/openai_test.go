package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sector-insights/internal/llm"
	"sector-insights/internal/store"
)

func testConfig(url string) *store.Config {
	cfg := &store.Config{}
	cfg.LLM.BaseURL = url + "/"
	cfg.LLM.APIKey = "openai-key"
	cfg.LLM.Model = "gpt-test"
	cfg.LLM.MaxTokens = 256
	cfg.LLM.Temperature = 0.7
	cfg.LLM.TimeoutSeconds = 5
	return cfg
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer openai-key" {
			t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" ok "}}]}`))
	}))
	defer srv.Close()

	c := NewCompleter(testConfig(srv.URL))
	out, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected 'ok', got %q", out)
	}
	if c.Name() != "openai/gpt-test" {
		t.Errorf("Unexpected name %s", c.Name())
	}
}

func TestCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewCompleter(testConfig(srv.URL)).Complete(context.Background(), "prompt")
	var se *llm.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusUnauthorized || !se.Permanent() {
		t.Errorf("Expected permanent 401, got %d", se.StatusCode)
	}
}
