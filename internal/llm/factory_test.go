package llm

import (
	"strings"
	"testing"

	"github.com/vigil-app/vigil/pkg/types"
)

func TestNewChatCompleterByProvider(t *testing.T) {
	if _, err := NewChatCompleter(ProviderConfig{Provider: "openai", APIKey: "k"}); err != nil {
		t.Errorf("openai: unexpected error: %v", err)
	}
	if _, err := NewChatCompleter(ProviderConfig{Provider: "anthropic", APIKey: "k"}); err != nil {
		t.Errorf("anthropic: unexpected error: %v", err)
	}
	if _, err := NewChatCompleter(ProviderConfig{Provider: ""}); err != nil {
		t.Errorf("default ollama: unexpected error: %v", err)
	}
}

func TestNewChatCompleterRequiresKey(t *testing.T) {
	if _, err := NewChatCompleter(ProviderConfig{Provider: "openai"}); err == nil {
		t.Error("expected error for openai without API key")
	}
	if _, err := NewChatCompleter(ProviderConfig{Provider: "anthropic"}); err == nil {
		t.Error("expected error for anthropic without API key")
	}
}

func TestNewChatCompleterUnknownProvider(t *testing.T) {
	if _, err := NewChatCompleter(ProviderConfig{Provider: "carrier_pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewEmbedderAnthropicFallsBackToOllama(t *testing.T) {
	gen, err := NewEmbedder(ProviderConfig{Provider: "anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gen.(*OllamaEmbeddingClient); !ok {
		t.Errorf("got %T, want *OllamaEmbeddingClient", gen)
	}
}

func TestSystemPromptPersonality(t *testing.T) {
	settings := types.DefaultCompanionSettings()
	settings.PersonalityStyle = types.StyleChallenging

	prompt := SystemPrompt(settings)
	if !strings.Contains(prompt, "demanding") {
		t.Errorf("challenging prompt missing tone directive: %q", prompt)
	}

	// Unrecognized styles normalize to balanced rather than producing an
	// empty tone line.
	settings.PersonalityStyle = "sarcastic"
	prompt = SystemPrompt(settings)
	if !strings.Contains(prompt, "even-handed") {
		t.Errorf("unrecognized style did not normalize: %q", prompt)
	}
}
