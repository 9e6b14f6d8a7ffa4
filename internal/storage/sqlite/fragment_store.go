package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// fragmentScanMaxCandidates caps the number of embeddings loaded into memory
// during a similarity search. Fragments are selected newest first so recent
// memory is always considered. For personal-dashboard datasets (< 10k
// fragments) this limit is never hit; beyond that, use the pgvector backend.
const fragmentScanMaxCandidates = 10_000

// StoreFragment persists a fragment with its embedding serialized as a
// little-endian float64 BLOB.
func (s *Store) StoreFragment(ctx context.Context, fragment *types.MemoryFragment) error {
	if fragment == nil {
		return storage.ErrInvalidInput
	}
	if fragment.ID == "" || fragment.UserID == "" {
		return fmt.Errorf("%w: fragment requires id and user_id", storage.ErrInvalidInput)
	}
	if fragment.Text == "" {
		return fmt.Errorf("%w: fragment text is required", storage.ErrInvalidInput)
	}
	if len(fragment.Embedding) == 0 {
		return fmt.Errorf("%w: fragment embedding is required", storage.ErrInvalidInput)
	}

	var metadataJSON []byte
	if fragment.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(fragment.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal fragment metadata: %w", err)
		}
	}

	blob := serializeEmbedding(fragment.Embedding)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_fragments
			(id, user_id, source_conversation_id, text, embedding, dimension,
			 embedding_model, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fragment.ID, fragment.UserID, nullString(fragment.SourceConversationID),
		fragment.Text, blob, len(fragment.Embedding),
		nullString(fragment.EmbeddingModel), nullBytes(metadataJSON),
		fragment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fragment: %w", err)
	}
	return nil
}

// SearchFragments ranks a user's fragments by cosine similarity to the query
// vector using a full linear scan, which at this scale matches exact ranking
// by definition.
func (s *Store) SearchFragments(ctx context.Context, userID string, query []float64, k int) ([]storage.ScoredFragment, error) {
	if k <= 0 {
		k = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_conversation_id, text, embedding, dimension,
		       embedding_model, metadata, created_at
		FROM memory_fragments
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, fragmentScanMaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scored []storage.ScoredFragment
	for rows.Next() {
		var f types.MemoryFragment
		var convID, model, metadataJSON sql.NullString
		var blob []byte
		var dim int
		if err := rows.Scan(&f.ID, &f.UserID, &convID, &f.Text, &blob, &dim,
			&model, &metadataJSON, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		embedding, err := deserializeEmbedding(blob, dim)
		if err != nil {
			// Corrupt row; skip it rather than failing the whole search.
			continue
		}
		f.Embedding = embedding
		if convID.Valid {
			f.SourceConversationID = convID.String
		}
		if model.Valid {
			f.EmbeddingModel = model.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &f.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal fragment metadata: %w", err)
			}
		}
		scored = append(scored, storage.ScoredFragment{
			Fragment:   f,
			Similarity: CosineSimilarity(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fragments: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors. Returns 0 if either vector has zero magnitude or lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// serializeEmbedding converts a float64 slice to a little-endian binary BLOB.
func serializeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// deserializeEmbedding converts a binary BLOB back to a float64 slice.
// dimension validates the buffer size.
func deserializeEmbedding(buf []byte, dimension int) ([]float64, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dimension)
	}
	if len(buf) != dimension*8 {
		return nil, fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", dimension*8, len(buf))
	}
	embedding := make([]float64, dimension)
	for i := 0; i < dimension; i++ {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return embedding, nil
}
