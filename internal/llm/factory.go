package llm

import "fmt"

// ProviderConfig describes how to reach an LLM provider.
type ProviderConfig struct {
	Provider       string // openai | anthropic | ollama
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string
}

// NewChatCompleter creates the appropriate ChatCompleter for the configured
// provider.
func NewChatCompleter(cfg ProviderConfig) (ChatCompleter, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbedder creates the appropriate EmbeddingGenerator for the configured
// provider. Anthropic has no embeddings API, so embedding requests fall back
// to a local Ollama model.
func NewEmbedder(cfg ProviderConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{APIKey: cfg.APIKey, Model: cfg.EmbeddingModel, BaseURL: cfg.BaseURL}), nil
	case "anthropic", "ollama", "":
		return NewOllamaEmbeddingClient(OllamaEmbeddingConfig{BaseURL: cfg.BaseURL, Model: cfg.EmbeddingModel}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
