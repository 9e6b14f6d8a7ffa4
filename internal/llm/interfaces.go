// Package llm provides the external completion and embedding capabilities
// consumed by the Vigil engine. Clients wrap every HTTP call with a circuit
// breaker and a rate limiter; callers must treat completions as slow,
// failable, and potentially malformed when structured output was requested.
package llm

import "context"

// Message is one turn in a chat completion request.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// ChatCompleter is the interface for LLM chat completion.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
// Returns float32 slice; callers convert to float64 for storage. Repeated
// calls on identical text must yield vectors whose mutual cosine similarity
// is effectively 1.0.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// System and User build single messages with the corresponding role.
func System(content string) Message { return Message{Role: "system", Content: content} }

// User builds a user-role message.
func User(content string) Message { return Message{Role: "user", Content: content} }
