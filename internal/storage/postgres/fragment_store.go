// Package postgres provides a PostgreSQL + pgvector implementation of the
// fragment store. It is a transparent substitute for the SQLite linear scan:
// cosine-distance ordering by the vector index matches exact cosine ranking.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// FragmentStore implements storage.FragmentStore using PostgreSQL with the
// pgvector extension.
type FragmentStore struct {
	db *sql.DB
}

var _ storage.FragmentStore = (*FragmentStore)(nil)

// Open connects to PostgreSQL, verifies the pgvector extension, and creates
// the schema.
func Open(dsn string) (*FragmentStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgvector extension unavailable: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &FragmentStore{db: db}, nil
}

// Close releases the database handle.
func (s *FragmentStore) Close() error {
	return s.db.Close()
}

// StoreFragment persists a fragment with its embedding in a vector column.
func (s *FragmentStore) StoreFragment(ctx context.Context, fragment *types.MemoryFragment) error {
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

	// pgvector stores float32 components.
	vec := pgvector.NewVector(toFloat32(fragment.Embedding))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_fragments
			(id, user_id, source_conversation_id, text, embedding, dimension,
			 embedding_model, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		fragment.ID, fragment.UserID, nullString(fragment.SourceConversationID),
		fragment.Text, vec, len(fragment.Embedding),
		nullString(fragment.EmbeddingModel), nullBytes(metadataJSON),
		fragment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fragment: %w", err)
	}
	return nil
}

// SearchFragments ranks fragments by cosine similarity using the pgvector
// cosine-distance operator. Similarity is 1 - distance. A zero query vector
// is handled in Go: pgvector's cosine distance is undefined for zero vectors,
// so every fragment scores 0 and insertion order decides ranking.
func (s *FragmentStore) SearchFragments(ctx context.Context, userID string, query []float64, k int) ([]storage.ScoredFragment, error) {
	if k <= 0 {
		k = 10
	}

	if isZeroVector(query) {
		return s.zeroQueryFragments(ctx, userID, k)
	}

	vec := pgvector.NewVector(toFloat32(query))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_conversation_id, text, dimension,
		       embedding_model, metadata, created_at,
		       1 - (embedding <=> $2) AS similarity
		FROM memory_fragments
		WHERE user_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3`, userID, vec, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanScoredFragments(rows, nil)
}

// zeroQueryFragments returns up to k fragments each scored 0, satisfying the
// zero-vector contract without a vector-index query.
func (s *FragmentStore) zeroQueryFragments(ctx context.Context, userID string, k int) ([]storage.ScoredFragment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_conversation_id, text, dimension,
		       embedding_model, metadata, created_at
		FROM memory_fragments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	zero := 0.0
	return scanScoredFragments(rows, &zero)
}

// scanScoredFragments reads fragment rows. When fixedScore is nil the last
// column is a similarity value; otherwise every fragment gets *fixedScore.
func scanScoredFragments(rows *sql.Rows, fixedScore *float64) ([]storage.ScoredFragment, error) {
	var scored []storage.ScoredFragment
	for rows.Next() {
		var f types.MemoryFragment
		var convID, model, metadataJSON sql.NullString
		var dim int
		var similarity float64

		dest := []interface{}{&f.ID, &f.UserID, &convID, &f.Text, &dim,
			&model, &metadataJSON, &f.CreatedAt}
		if fixedScore == nil {
			dest = append(dest, &similarity)
		} else {
			similarity = *fixedScore
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
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
		scored = append(scored, storage.ScoredFragment{Fragment: f, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return scored, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func isZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
