// Package llm wraps the chat-completion backends used for hazard
// classification, keyword generation and post relevance analysis.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no provider or API key is set.
	ErrNotConfigured = errors.New("llm: provider not configured")

	// ErrEmptyResponse is returned when the backend answered without content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// APIError is a non-2xx answer from a backend.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// Provider is a chat-completion backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends one system+user exchange and returns the raw reply text.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// IsAvailable checks that the backend is reachable with the configured credentials.
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt exchange.
type CompletionRequest struct {
	System string
	Prompt string

	// Zero values fall back to the provider config.
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completion is the backend's reply.
type Completion struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "".
	// "openai" covers any OpenAI-compatible endpoint such as OpenRouter or DeepSeek.
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	Timeout     int // seconds
	MaxTokens   int
	Temperature float32

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig mirrors the classifier's production settings.
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       "deepseek/deepseek-chat",
		BaseURL:     "https://openrouter.ai/api/v1",
		Timeout:     30,
		MaxTokens:   500,
		Temperature: 0.1,
	}
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 500
}

func (c Config) temperature(req CompletionRequest) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return c.Temperature
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
