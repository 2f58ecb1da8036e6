package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

// NewProvider creates the configured provider. An empty provider name, or an
// OpenAI/Anthropic provider without a key, yields (nil, nil): callers run
// their deterministic fallbacks instead.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "openrouter", "deepseek":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the file config, filling the API key from the
// environment when the file leaves it empty.
func ConfigFromModel(c model.LLMConfig, proxy model.SearchConfig) Config {
	cfg := Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   proxy.HTTPProxy,
		HTTPSProxy:  proxy.HTTPSProxy,
	}
	if cfg.APIKey == "" {
		cfg.APIKey = APIKeyFromEnv(cfg.Provider)
	}
	return cfg
}

// APIKeyFromEnv looks up the conventional key variables for a provider.
func APIKeyFromEnv(provider string) string {
	var names []string
	switch strings.ToLower(provider) {
	case "anthropic", "claude":
		names = []string{"ANTHROPIC_API_KEY"}
	default:
		names = []string{"OPENROUTER_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY"}
	}
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
