// Package storage provides composable storage interfaces for the Vigil engine.
//
// The layer is split into small, focused interfaces so backends can implement
// them independently and the engine can depend on exactly what it reads or
// writes. The SQLite backend implements all of them on one handle; the
// PostgreSQL backend currently implements FragmentStore only (pgvector).
package storage

import (
	"context"
	"time"

	"github.com/vigil-app/vigil/pkg/types"
)

// MetricStore is a read-mostly view over time-stamped metric observations.
type MetricStore interface {
	// Append records a new observation. Points are immutable once written.
	Append(ctx context.Context, point *types.MetricPoint) error

	// RecentPoints returns up to limit observations of one metric, newest
	// first. Callers that need oldest→newest order (the forecaster) reverse.
	RecentPoints(ctx context.Context, userID, metric string, limit int) ([]types.MetricPoint, error)

	// MetricNames lists the distinct metric names recorded for a user.
	MetricNames(ctx context.Context, userID string) ([]string, error)
}

// RelationshipLedger is the read/write view over contacts and their
// communication events.
type RelationshipLedger interface {
	ListRelationships(ctx context.Context, userID string) ([]types.Relationship, error)

	// GetRelationship returns ErrNotFound when the id is unknown.
	GetRelationship(ctx context.Context, id string) (*types.Relationship, error)

	// FindByContact locates a user's relationship by contact identity.
	// Returns ErrNotFound when no relationship exists for that contact.
	FindByContact(ctx context.Context, userID, contact string) (*types.Relationship, error)

	// UpsertRelationship inserts or replaces a relationship by ID.
	UpsertRelationship(ctx context.Context, rel *types.Relationship) error

	// InsertEvent appends an immutable communication event.
	InsertEvent(ctx context.Context, event *types.CommunicationEvent) error

	// ListEvents returns a user's events occurring at or after since,
	// newest first.
	ListEvents(ctx context.Context, userID string, since time.Time) ([]types.CommunicationEvent, error)

	// ListEventsForRelationship returns events tied to one relationship
	// occurring at or after since, newest first.
	ListEventsForRelationship(ctx context.Context, userID, relationshipID string, since time.Time) ([]types.CommunicationEvent, error)

	// ListEventsForContact returns all events with a contact, newest first.
	ListEventsForContact(ctx context.Context, userID, contact string) ([]types.CommunicationEvent, error)
}

// InsightStore persists proactive insights.
type InsightStore interface {
	// CreateInsight persists a new insight. The caller is responsible for
	// dedup via FindUnresolved before creating.
	CreateInsight(ctx context.Context, insight *types.Insight) error

	// FindUnresolved returns the unresolved insight matching the dedup key
	// (userID, kind, relationshipID), or ErrNotFound. An empty
	// relationshipID matches insights without a relationship.
	FindUnresolved(ctx context.Context, userID string, kind types.InsightKind, relationshipID string) (*types.Insight, error)

	// ListUnresolved returns all unresolved insights for a user, newest first.
	ListUnresolved(ctx context.Context, userID string) ([]types.Insight, error)

	// ListRecentInsights returns up to limit insights, newest first.
	ListRecentInsights(ctx context.Context, userID string, limit int) ([]types.Insight, error)

	// ResolveInsight marks an insight resolved. Returns ErrNotFound for an
	// unknown id. Resolution is always driven by an external action, never
	// by the engine.
	ResolveInsight(ctx context.Context, id string) error
}

// PatternStore persists behavioral patterns with upsert-by-identity
// semantics.
type PatternStore interface {
	// FindPattern locates a pattern by its identity tuple
	// (userID, patternType, key). Returns ErrNotFound when absent.
	FindPattern(ctx context.Context, userID string, patternType types.PatternType, key string) (*types.BehavioralPattern, error)

	// UpsertPattern inserts a new pattern or, when one with the same
	// identity tuple exists, updates LastDetected, Occurrences, Confidence,
	// Description, and Metadata in place.
	UpsertPattern(ctx context.Context, pattern *types.BehavioralPattern) error

	// ListPatterns returns up to limit patterns, most recently detected
	// first.
	ListPatterns(ctx context.Context, userID string, limit int) ([]types.BehavioralPattern, error)
}

// FragmentStore persists embedded memory fragments and ranks them by vector
// similarity. Implementations may use an index (pgvector) or a linear scan
// (SQLite) as long as ranking order matches exact cosine similarity.
type FragmentStore interface {
	// StoreFragment persists a fragment with its embedding.
	StoreFragment(ctx context.Context, fragment *types.MemoryFragment) error

	// SearchFragments returns up to k of the user's fragments ordered by
	// descending cosine similarity to the query vector. A zero query vector
	// yields similarity 0 for every fragment.
	SearchFragments(ctx context.Context, userID string, query []float64, k int) ([]ScoredFragment, error)
}

// ConversationStore persists companion conversation turns.
type ConversationStore interface {
	AppendTurn(ctx context.Context, turn *types.ConversationTurn) error

	// RecentTurns returns up to limit turns, newest first.
	RecentTurns(ctx context.Context, userID string, limit int) ([]types.ConversationTurn, error)
}

// ActivityLog records engine component activity for diagnostics. Recording
// failures are log-and-continue; the log is never load-bearing.
type ActivityLog interface {
	RecordActivity(ctx context.Context, entry *types.ActivityEntry) error
	RecentActivity(ctx context.Context, userID string, limit int) ([]types.ActivityEntry, error)
}
