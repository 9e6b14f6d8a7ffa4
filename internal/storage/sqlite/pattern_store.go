package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

const patternColumns = `
	id, user_id, pattern_type, pattern_key, name, description, confidence,
	first_detected, last_detected, occurrences, metadata`

// FindPattern locates a pattern by its identity tuple (userID, patternType, key).
func (s *Store) FindPattern(ctx context.Context, userID string, patternType types.PatternType, key string) (*types.BehavioralPattern, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+patternColumns+`
		FROM behavioral_patterns
		WHERE user_id = ? AND pattern_type = ? AND pattern_key = ?`,
		userID, string(patternType), key)
	pattern, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return pattern, err
}

// UpsertPattern inserts a new pattern or updates the existing one with the
// same identity tuple. The pattern key is derived from the metadata.
func (s *Store) UpsertPattern(ctx context.Context, pattern *types.BehavioralPattern) error {
	if pattern == nil {
		return storage.ErrInvalidInput
	}
	if pattern.ID == "" || pattern.UserID == "" || pattern.PatternType == "" {
		return fmt.Errorf("%w: pattern requires id, user_id, and pattern_type", storage.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(pattern.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO behavioral_patterns
			(id, user_id, pattern_type, pattern_key, name, description,
			 confidence, first_detected, last_detected, occurrences, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, pattern_type, pattern_key) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			confidence = excluded.confidence,
			last_detected = excluded.last_detected,
			occurrences = behavioral_patterns.occurrences + 1,
			metadata = excluded.metadata`,
		pattern.ID, pattern.UserID, string(pattern.PatternType), pattern.Key(),
		pattern.Name, pattern.Description, pattern.Confidence,
		pattern.FirstDetected, pattern.LastDetected, pattern.Occurrences,
		metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}
	return nil
}

// ListPatterns returns up to limit patterns, most recently detected first.
func (s *Store) ListPatterns(ctx context.Context, userID string, limit int) ([]types.BehavioralPattern, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+patternColumns+`
		FROM behavioral_patterns
		WHERE user_id = ?
		ORDER BY last_detected DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []types.BehavioralPattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *pattern)
	}
	return patterns, rows.Err()
}

func scanPattern(row rowScanner) (*types.BehavioralPattern, error) {
	var p types.BehavioralPattern
	var patternType, patternKey string
	var metadataJSON sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &patternType, &patternKey, &p.Name,
		&p.Description, &p.Confidence, &p.FirstDetected, &p.LastDetected,
		&p.Occurrences, &metadataJSON)
	if err != nil {
		return nil, err
	}
	p.PatternType = types.PatternType(patternType)
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		meta, err := types.DecodePatternMetadata(p.PatternType, []byte(metadataJSON.String))
		if err != nil {
			return nil, fmt.Errorf("decode pattern metadata: %w", err)
		}
		p.Metadata = meta
	}
	return &p, nil
}
