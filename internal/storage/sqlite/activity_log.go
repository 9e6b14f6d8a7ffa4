package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// RecordActivity appends one activity entry.
func (s *Store) RecordActivity(ctx context.Context, entry *types.ActivityEntry) error {
	if entry == nil {
		return storage.ErrInvalidInput
	}
	if entry.ID == "" || entry.UserID == "" || entry.Component == "" {
		return fmt.Errorf("%w: activity entry requires id, user_id, and component", storage.ErrInvalidInput)
	}

	var detailJSON []byte
	if entry.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal activity detail: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, component, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Component, entry.Action,
		nullBytes(detailJSON), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// RecentActivity returns up to limit entries, newest first.
func (s *Store) RecentActivity(ctx context.Context, userID string, limit int) ([]types.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, component, action, detail, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []types.ActivityEntry
	for rows.Next() {
		var e types.ActivityEntry
		var detailJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Component, &e.Action, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		if detailJSON.Valid && detailJSON.String != "" {
			if err := json.Unmarshal([]byte(detailJSON.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal activity detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
