package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigil-app/vigil/internal/llm"
	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// SemanticMemory embeds text and stores/retrieves fragments by vector
// similarity. It owns the embedding call; the fragment store only persists
// and ranks vectors.
type SemanticMemory struct {
	fragments storage.FragmentStore
	embedder  llm.EmbeddingGenerator
}

// NewSemanticMemory creates a semantic memory service over the given
// fragment store and embedding client.
func NewSemanticMemory(fragments storage.FragmentStore, embedder llm.EmbeddingGenerator) *SemanticMemory {
	return &SemanticMemory{fragments: fragments, embedder: embedder}
}

// Remember embeds text and persists it as a memory fragment. The returned
// fragment carries the generated ID and embedding.
func (m *SemanticMemory) Remember(ctx context.Context, userID, text, sourceConversationID string, metadata map[string]interface{}) (*types.MemoryFragment, error) {
	if userID == "" || text == "" {
		return nil, fmt.Errorf("%w: userID and text are required", storage.ErrInvalidInput)
	}

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed fragment: %w", err)
	}

	fragment := &types.MemoryFragment{
		ID:                   uuid.NewString(),
		UserID:               userID,
		SourceConversationID: sourceConversationID,
		Text:                 text,
		Embedding:            widen(vec),
		EmbeddingModel:       m.embedder.GetModel(),
		Metadata:             metadata,
		CreatedAt:            time.Now().UTC(),
	}

	if err := m.fragments.StoreFragment(ctx, fragment); err != nil {
		return nil, fmt.Errorf("failed to store fragment: %w", err)
	}
	return fragment, nil
}

// Recall embeds the query text and returns up to k of the user's fragments
// ordered by descending cosine similarity.
func (m *SemanticMemory) Recall(ctx context.Context, userID, query string, k int) ([]storage.ScoredFragment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", storage.ErrInvalidInput)
	}
	if k <= 0 {
		k = 5
	}

	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := m.fragments.SearchFragments(ctx, userID, widen(vec), k)
	if err != nil {
		return nil, fmt.Errorf("fragment search failed: %w", err)
	}
	return results, nil
}

// widen converts an embedding client vector to the float64 representation
// the fragment stores rank with.
func widen(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
