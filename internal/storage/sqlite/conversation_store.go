package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// AppendTurn persists one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, turn *types.ConversationTurn) error {
	if turn == nil {
		return storage.ErrInvalidInput
	}
	if turn.ID == "" || turn.UserID == "" || turn.Content == "" {
		return fmt.Errorf("%w: turn requires id, user_id, and content", storage.ErrInvalidInput)
	}

	var metadataJSON []byte
	if turn.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(turn.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal turn metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, user_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.UserID, string(turn.Role), turn.Content,
		nullBytes(metadataJSON), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversation turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns, newest first.
func (s *Store) RecentTurns(ctx context.Context, userID string, limit int) ([]types.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, metadata, created_at
		FROM conversation_turns
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []types.ConversationTurn
	for rows.Next() {
		var t types.ConversationTurn
		var role string
		var metadataJSON sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &role, &t.Content, &metadataJSON, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation turn: %w", err)
		}
		t.Role = types.ConversationRole(role)
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &t.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal turn metadata: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
