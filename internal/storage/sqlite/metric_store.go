package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// Append records a new metric observation.
func (s *Store) Append(ctx context.Context, point *types.MetricPoint) error {
	if point == nil {
		return storage.ErrInvalidInput
	}
	if point.ID == "" || point.UserID == "" || point.Metric == "" {
		return fmt.Errorf("%w: metric point requires id, user_id, and metric", storage.ErrInvalidInput)
	}

	var metadataJSON []byte
	if point.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(point.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metric_points (id, user_id, metric, value, category, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		point.ID, point.UserID, point.Metric, point.Value,
		nullString(point.Category), nullBytes(metadataJSON), point.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert metric point: %w", err)
	}
	return nil
}

// RecentPoints returns up to limit observations of one metric, newest first.
func (s *Store) RecentPoints(ctx context.Context, userID, metric string, limit int) ([]types.MetricPoint, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, metric, value, category, metadata, timestamp
		FROM metric_points
		WHERE user_id = ? AND metric = ?
		ORDER BY timestamp DESC
		LIMIT ?`, userID, metric, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []types.MetricPoint
	for rows.Next() {
		var p types.MetricPoint
		var category, metadataJSON sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Metric, &p.Value, &category, &metadataJSON, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan metric point: %w", err)
		}
		if category.Valid {
			p.Category = category.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &p.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metric metadata: %w", err)
			}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return points, nil
}

// MetricNames lists the distinct metric names recorded for a user.
func (s *Store) MetricNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT metric FROM metric_points WHERE user_id = ? ORDER BY metric`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan metric name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullBytes converts an empty byte slice to a SQL NULL.
func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
