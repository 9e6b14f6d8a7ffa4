package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/internal/storage/sqlite"
	"github.com/vigil-app/vigil/pkg/types"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestMonitor(store *sqlite.Store) *Monitor {
	return NewMonitor(store, store, store, store, store, nil, DefaultDetectionConfig())
}

func seedColdRelationship(t *testing.T, store *sqlite.Store, userID, contact string, importance, daysSince int) string {
	t.Helper()
	now := time.Now().UTC()
	last := now.Add(-time.Duration(daysSince) * 24 * time.Hour)
	rel := &types.Relationship{
		ID:               uuid.NewString(),
		UserID:           userID,
		Contact:          contact,
		Importance:       importance,
		ExpectedInterval: 7,
		LastContactAt:    &last,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.UpsertRelationship(context.Background(), rel))
	return rel.ID
}

func TestRunColdConnectionIdempotence(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)
	relID := seedColdRelationship(t, store, "u1", "alice", 9, 10)

	first, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.InsightsCreated)
	assert.Zero(t, first.InsightsSkipped)

	// A second pass without any resolution must not create a duplicate.
	second, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.InsightsCreated)
	assert.Equal(t, 1, second.InsightsSkipped)

	unresolved, err := store.ListUnresolved(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, types.InsightColdConnection, unresolved[0].Kind)
	assert.Equal(t, relID, unresolved[0].RelationshipID)
	assert.Equal(t, types.PriorityHigh, unresolved[0].Priority)
}

func TestRunColdConnectionAfterResolution(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)
	seedColdRelationship(t, store, "u1", "alice", 5, 10)

	first, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, first.InsightsCreated)

	unresolved, err := store.ListUnresolved(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.ResolveInsight(ctx, unresolved[0].ID))

	// The relationship is still overdue, so a fresh insight is raised.
	second, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.InsightsCreated)
}

// failingInsightStore fails CreateInsight for one relationship ID.
type failingInsightStore struct {
	storage.InsightStore
	failRelID string
}

func (f *failingInsightStore) CreateInsight(ctx context.Context, insight *types.Insight) error {
	if insight.RelationshipID == f.failRelID {
		return fmt.Errorf("%w: injected failure", storage.ErrUnavailable)
	}
	return f.InsightStore.CreateInsight(ctx, insight)
}

func TestRunPersistFailureIsolation(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	badRelID := seedColdRelationship(t, store, "u1", "alice", 5, 10)
	seedColdRelationship(t, store, "u1", "bob", 5, 12)

	insights := &failingInsightStore{InsightStore: store, failRelID: badRelID}
	monitor := NewMonitor(store, store, insights, store, store, nil, DefaultDetectionConfig())

	report, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.InsightsCreated, "the sibling finding must still persist")
	assert.Equal(t, 1, report.PersistFailures)

	unresolved, err := store.ListUnresolved(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.NotEqual(t, badRelID, unresolved[0].RelationshipID)
}

func TestRunSpikePatternUpsert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	day := time.Now().UTC().Add(-24 * time.Hour)
	for i := 0; i < 3; i++ {
		event := &types.CommunicationEvent{
			ID:         uuid.NewString(),
			UserID:     "u1",
			EventType:  types.EventEmailSent,
			Contact:    "alice",
			OccurredAt: day.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.InsertEvent(ctx, event))
	}

	first, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.PatternsUpserted)

	pattern, err := store.FindPattern(ctx, "u1", types.PatternCommunicationSpike, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pattern.Occurrences)
	firstID := pattern.ID

	// Re-detection updates the stored pattern in place.
	_, err = monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)

	pattern, err = store.FindPattern(ctx, "u1", types.PatternCommunicationSpike, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, pattern.Occurrences)
	assert.Equal(t, firstID, pattern.ID, "identity must survive re-detection")
	require.NotNil(t, pattern.Metadata.Spike)
	assert.Equal(t, "alice", pattern.Metadata.Spike.Contact)
}

func TestRunAnomalyInsightDedup(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	base := time.Now().UTC().Add(-5 * time.Hour)
	for i, v := range []string{"10", "10", "10", "10", "40"} {
		point := &types.MetricPoint{
			ID:        uuid.NewString(),
			UserID:    "u1",
			Metric:    "net_worth",
			Value:     v,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Append(ctx, point))
	}

	first, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	require.Len(t, first.Anomalies, 1)
	assert.Equal(t, SeverityCritical, first.Anomalies[0].Severity)
	assert.Equal(t, 1, first.InsightsCreated)

	second, err := monitor.Run(ctx, "u1", RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.InsightsCreated)
	assert.Equal(t, 1, second.InsightsSkipped)
}

func TestRecordInteractionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	// First contact creates the relationship with defaults.
	err := monitor.RecordInteraction(ctx, &types.CommunicationEvent{
		UserID:    "u1",
		EventType: types.EventEmailSent,
		Contact:   "alice",
	})
	require.NoError(t, err)

	rel, err := store.FindByContact(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Equal(t, defaultImportance, rel.Importance)
	assert.Equal(t, defaultExpectedInterval, rel.ExpectedInterval)
	assert.Equal(t, 1, rel.TotalInteractions)
	require.NotNil(t, rel.LastContactAt)

	// A later event advances recency and increments the counter.
	later := time.Now().UTC().Add(time.Hour)
	err = monitor.RecordInteraction(ctx, &types.CommunicationEvent{
		UserID:     "u1",
		EventType:  types.EventCall,
		Contact:    "alice",
		OccurredAt: later,
	})
	require.NoError(t, err)

	rel, err = store.FindByContact(ctx, "u1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, rel.TotalInteractions)
	assert.WithinDuration(t, later, *rel.LastContactAt, time.Second)

	events, err := store.ListEventsForContact(ctx, "u1", "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, rel.ID, events[0].RelationshipID)
}

func TestRecordInteractionRejectsUnknownType(t *testing.T) {
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	err := monitor.RecordInteraction(context.Background(), &types.CommunicationEvent{
		UserID:    "u1",
		EventType: "carrier_pigeon",
		Contact:   "alice",
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRelationshipHealthFromStore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	relID := seedColdRelationship(t, store, "u1", "alice", 5, 10)

	// 3 days overdue with no recent events: 100 - 15 = 85.
	score, err := monitor.RelationshipHealth(ctx, "u1", relID)
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}

func TestEmailPatternSummary(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	now := time.Now().UTC()
	events := []types.CommunicationEvent{
		{EventType: types.EventEmailSent, Contact: "alice", Sentiment: types.SentimentPositive, OccurredAt: now.Add(-time.Hour)},
		{EventType: types.EventEmailReceived, Contact: "alice", Sentiment: types.SentimentPositive, OccurredAt: now.Add(-2 * time.Hour)},
		{EventType: types.EventEmailSent, Contact: "alice", Sentiment: types.SentimentNegative, OccurredAt: now.Add(-3 * time.Hour)},
		{EventType: types.EventEmailSent, Contact: "bob", OccurredAt: now.Add(-time.Hour)},
	}
	for i := range events {
		events[i].ID = uuid.NewString()
		events[i].UserID = "u1"
		require.NoError(t, store.InsertEvent(ctx, &events[i]))
	}

	summaries, err := monitor.EmailPatternSummary(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	alice := summaries[0]
	assert.Equal(t, "alice", alice.Contact)
	assert.Equal(t, 3, alice.Total)
	assert.Equal(t, 2, alice.Sent)
	assert.Equal(t, 1, alice.Received)
	assert.Equal(t, types.SentimentPositive, alice.TopSentiment)

	bob := summaries[1]
	assert.Equal(t, "bob", bob.Contact)
	assert.Empty(t, bob.TopSentiment)
}

func TestRunRequiresUser(t *testing.T) {
	store := openTestStore(t)
	monitor := newTestMonitor(store)

	_, err := monitor.Run(context.Background(), "", RunOptions{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
