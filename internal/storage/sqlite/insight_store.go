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

const insightColumns = `
	id, user_id, relationship_id, kind, title, description, priority,
	confidence, action_suggested, metadata, created_at, resolved_at`

// CreateInsight persists a new insight.
func (s *Store) CreateInsight(ctx context.Context, insight *types.Insight) error {
	if insight == nil {
		return storage.ErrInvalidInput
	}
	if insight.ID == "" || insight.UserID == "" || insight.Title == "" {
		return fmt.Errorf("%w: insight requires id, user_id, and title", storage.ErrInvalidInput)
	}
	if !types.IsValidInsightKind(string(insight.Kind)) {
		return fmt.Errorf("%w: unknown insight kind %q", storage.ErrInvalidInput, insight.Kind)
	}
	if !types.IsValidPriority(string(insight.Priority)) {
		return fmt.Errorf("%w: unknown priority %q", storage.ErrInvalidInput, insight.Priority)
	}
	if insight.Confidence < 0 || insight.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be 0-100, got %d", storage.ErrInvalidInput, insight.Confidence)
	}

	var metadataJSON []byte
	if insight.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(insight.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal insight metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights
			(id, user_id, relationship_id, kind, title, description, priority,
			 confidence, action_suggested, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.ID, insight.UserID, nullString(insight.RelationshipID),
		string(insight.Kind), insight.Title, insight.Description,
		string(insight.Priority), insight.Confidence,
		nullString(insight.ActionSuggested), nullBytes(metadataJSON),
		insight.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

// FindUnresolved returns the unresolved insight matching the dedup key
// (userID, kind, relationshipID), or storage.ErrNotFound.
func (s *Store) FindUnresolved(ctx context.Context, userID string, kind types.InsightKind, relationshipID string) (*types.Insight, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+insightColumns+`
		FROM insights
		WHERE user_id = ? AND kind = ?
		  AND COALESCE(relationship_id, '') = ?
		  AND resolved_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`, userID, string(kind), relationshipID)
	insight, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return insight, err
}

// ListUnresolved returns all unresolved insights for a user, newest first.
func (s *Store) ListUnresolved(ctx context.Context, userID string) ([]types.Insight, error) {
	return s.queryInsights(ctx, `
		SELECT `+insightColumns+`
		FROM insights
		WHERE user_id = ? AND resolved_at IS NULL
		ORDER BY created_at DESC`, userID)
}

// ListRecentInsights returns up to limit insights, newest first.
func (s *Store) ListRecentInsights(ctx context.Context, userID string, limit int) ([]types.Insight, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryInsights(ctx, `
		SELECT `+insightColumns+`
		FROM insights
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
}

// ResolveInsight marks an insight resolved.
func (s *Store) ResolveInsight(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE insights SET resolved_at = CURRENT_TIMESTAMP
		WHERE id = ? AND resolved_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve insight: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryInsights(ctx context.Context, query string, args ...interface{}) ([]types.Insight, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []types.Insight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, *insight)
	}
	return insights, rows.Err()
}

func scanInsight(row rowScanner) (*types.Insight, error) {
	var in types.Insight
	var relID, action, metadataJSON sql.NullString
	var kind, priority string
	var resolvedAt sql.NullTime
	err := row.Scan(&in.ID, &in.UserID, &relID, &kind, &in.Title,
		&in.Description, &priority, &in.Confidence, &action, &metadataJSON,
		&in.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	in.Kind = types.InsightKind(kind)
	in.Priority = types.Priority(priority)
	if relID.Valid {
		in.RelationshipID = relID.String
	}
	if action.Valid {
		in.ActionSuggested = action.String
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &in.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal insight metadata: %w", err)
		}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		in.ResolvedAt = &t
	}
	return &in, nil
}
