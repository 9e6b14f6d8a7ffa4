package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

const relationshipColumns = `
	id, user_id, contact, importance, expected_interval,
	last_contact_at, total_interactions, created_at, updated_at`

// ListRelationships returns all relationships for a user.
func (s *Store) ListRelationships(ctx context.Context, userID string) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships
		WHERE user_id = ?
		ORDER BY importance DESC, contact`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []types.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *rel)
	}
	return rels, rows.Err()
}

// GetRelationship retrieves a relationship by ID.
func (s *Store) GetRelationship(ctx context.Context, id string) (*types.Relationship, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships WHERE id = ?`, id)
	rel, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return rel, err
}

// FindByContact locates a user's relationship by contact identity.
func (s *Store) FindByContact(ctx context.Context, userID, contact string) (*types.Relationship, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships WHERE user_id = ? AND contact = ?`, userID, contact)
	rel, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return rel, err
}

// UpsertRelationship inserts or replaces a relationship by ID.
func (s *Store) UpsertRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil {
		return storage.ErrInvalidInput
	}
	if rel.ID == "" || rel.UserID == "" || rel.Contact == "" {
		return fmt.Errorf("%w: relationship requires id, user_id, and contact", storage.ErrInvalidInput)
	}

	var lastContact interface{}
	if rel.LastContactAt != nil {
		lastContact = *rel.LastContactAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships
			(id, user_id, contact, importance, expected_interval,
			 last_contact_at, total_interactions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			importance = excluded.importance,
			expected_interval = excluded.expected_interval,
			last_contact_at = excluded.last_contact_at,
			total_interactions = excluded.total_interactions,
			updated_at = excluded.updated_at`,
		rel.ID, rel.UserID, rel.Contact, rel.Importance, rel.ExpectedInterval,
		lastContact, rel.TotalInteractions, rel.CreatedAt, rel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert relationship: %w", err)
	}
	return nil
}

// InsertEvent appends an immutable communication event.
func (s *Store) InsertEvent(ctx context.Context, event *types.CommunicationEvent) error {
	if event == nil {
		return storage.ErrInvalidInput
	}
	if event.ID == "" || event.UserID == "" || event.Contact == "" {
		return fmt.Errorf("%w: event requires id, user_id, and contact", storage.ErrInvalidInput)
	}
	if !types.IsValidEventType(string(event.EventType)) {
		return fmt.Errorf("%w: unknown event type %q", storage.ErrInvalidInput, event.EventType)
	}

	var duration interface{}
	if event.DurationMinutes > 0 {
		duration = event.DurationMinutes
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO communication_events
			(id, user_id, relationship_id, event_type, contact, subject,
			 sentiment, occurred_at, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, nullString(event.RelationshipID),
		string(event.EventType), event.Contact, nullString(event.Subject),
		nullString(string(event.Sentiment)), event.OccurredAt, duration)
	if err != nil {
		return fmt.Errorf("failed to insert communication event: %w", err)
	}
	return nil
}

// ListEvents returns a user's events occurring at or after since, newest first.
func (s *Store) ListEvents(ctx context.Context, userID string, since time.Time) ([]types.CommunicationEvent, error) {
	return s.queryEvents(ctx, `
		SELECT id, user_id, relationship_id, event_type, contact, subject,
		       sentiment, occurred_at, duration_minutes
		FROM communication_events
		WHERE user_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC`, userID, since)
}

// ListEventsForRelationship returns events tied to one relationship, newest first.
func (s *Store) ListEventsForRelationship(ctx context.Context, userID, relationshipID string, since time.Time) ([]types.CommunicationEvent, error) {
	return s.queryEvents(ctx, `
		SELECT id, user_id, relationship_id, event_type, contact, subject,
		       sentiment, occurred_at, duration_minutes
		FROM communication_events
		WHERE user_id = ? AND relationship_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC`, userID, relationshipID, since)
}

// ListEventsForContact returns all events with a contact, newest first.
func (s *Store) ListEventsForContact(ctx context.Context, userID, contact string) ([]types.CommunicationEvent, error) {
	return s.queryEvents(ctx, `
		SELECT id, user_id, relationship_id, event_type, contact, subject,
		       sentiment, occurred_at, duration_minutes
		FROM communication_events
		WHERE user_id = ? AND contact = ?
		ORDER BY occurred_at DESC`, userID, contact)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...interface{}) ([]types.CommunicationEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query communication events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []types.CommunicationEvent
	for rows.Next() {
		var e types.CommunicationEvent
		var relID, subject, sentiment sql.NullString
		var duration sql.NullInt64
		var eventType string
		if err := rows.Scan(&e.ID, &e.UserID, &relID, &eventType, &e.Contact,
			&subject, &sentiment, &e.OccurredAt, &duration); err != nil {
			return nil, fmt.Errorf("scan communication event: %w", err)
		}
		e.EventType = types.EventType(eventType)
		if relID.Valid {
			e.RelationshipID = relID.String
		}
		if subject.Valid {
			e.Subject = subject.String
		}
		if sentiment.Valid {
			e.Sentiment = types.Sentiment(sentiment.String)
		}
		if duration.Valid {
			e.DurationMinutes = int(duration.Int64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRelationship(row rowScanner) (*types.Relationship, error) {
	var rel types.Relationship
	var lastContact sql.NullTime
	err := row.Scan(&rel.ID, &rel.UserID, &rel.Contact, &rel.Importance,
		&rel.ExpectedInterval, &lastContact, &rel.TotalInteractions,
		&rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastContact.Valid {
		t := lastContact.Time
		rel.LastContactAt = &t
	}
	return &rel, nil
}
