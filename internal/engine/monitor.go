package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/pkg/types"
)

// Defaults applied when RecordInteraction creates a relationship on first
// contact.
const (
	defaultImportance       = 5
	defaultExpectedInterval = 14
)

// Monitor orchestrates one detection pass: gather, detect, dedup, persist,
// and optionally compose. It holds no per-run state; concurrent runs for the
// same user are tolerated and the dedup step reads fresh persisted state to
// keep duplicates rare.
type Monitor struct {
	metrics  storage.MetricStore
	ledger   storage.RelationshipLedger
	insights storage.InsightStore
	patterns storage.PatternStore
	activity storage.ActivityLog
	composer *Composer // optional; nil disables the compose step
	cfg      DetectionConfig

	now func() time.Time
}

// NewMonitor creates a monitoring orchestrator. activity and composer may be
// nil.
func NewMonitor(metrics storage.MetricStore, ledger storage.RelationshipLedger, insights storage.InsightStore, patterns storage.PatternStore, activity storage.ActivityLog, composer *Composer, cfg DetectionConfig) *Monitor {
	cfg.normalize()
	return &Monitor{
		metrics:  metrics,
		ledger:   ledger,
		insights: insights,
		patterns: patterns,
		activity: activity,
		composer: composer,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the monitor's clock. Used by tests.
func (m *Monitor) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// RunOptions tunes one monitoring pass.
type RunOptions struct {
	// ComposeBriefing runs the compose step after persistence, producing a
	// briefing from this pass's findings. Requires a composer.
	ComposeBriefing bool

	// Settings shape the briefing tone when ComposeBriefing is set.
	Settings types.CompanionSettings
}

// RunReport summarizes one monitoring pass.
type RunReport struct {
	Anomalies []AnomalyFinding
	Forecasts []Forecast
	Cold      []ColdConnectionFinding
	Spikes    []SpikeFinding

	InsightsCreated  int
	InsightsSkipped  int // dropped as duplicates at dedup time
	PatternsUpserted int
	PersistFailures  int

	Briefing string // set only when ComposeBriefing was requested
}

// gathered holds the per-run snapshot the detectors consume.
type gathered struct {
	series        map[string][]types.MetricPoint // newest first per metric
	relationships []types.Relationship
	events        []types.CommunicationEvent
}

// Run executes one monitoring pass for a user. The pass reaches its terminal
// state when every finding is persisted or skipped as a duplicate; a failed
// persist for one finding never blocks the others. The returned error covers
// only the gather phase, where nothing can proceed without data.
func (m *Monitor) Run(ctx context.Context, userID string, opts RunOptions) (*RunReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", storage.ErrInvalidInput)
	}
	now := m.now()

	data, err := m.gather(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("gather failed for user %s: %w", userID, err)
	}

	report := m.detect(ctx, data, now)
	m.persist(ctx, userID, report, now)

	if opts.ComposeBriefing && m.composer != nil {
		report.Briefing = m.composer.DailyBriefing(ctx, userID, opts.Settings, BriefingInput{
			Anomalies: report.Anomalies,
			Forecasts: report.Forecasts,
			Cold:      report.Cold,
			Spikes:    report.Spikes,
		})
	}

	m.recordActivity(ctx, userID, report, now)
	return report, nil
}

// gather reads the metric, relationship, and event state the detectors need.
// The three read paths are independent and run concurrently.
func (m *Monitor) gather(ctx context.Context, userID string, now time.Time) (*gathered, error) {
	data := &gathered{series: make(map[string][]types.MetricPoint)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		names, err := m.metrics.MetricNames(gctx, userID)
		if err != nil {
			return fmt.Errorf("metric names: %w", err)
		}
		for _, name := range names {
			points, err := m.metrics.RecentPoints(gctx, userID, name, m.cfg.AnomalyWindow)
			if err != nil {
				return fmt.Errorf("metric %s: %w", name, err)
			}
			data.series[name] = points
		}
		return nil
	})

	g.Go(func() error {
		rels, err := m.ledger.ListRelationships(gctx, userID)
		if err != nil {
			return fmt.Errorf("relationships: %w", err)
		}
		data.relationships = rels
		return nil
	})

	g.Go(func() error {
		events, err := m.ledger.ListEvents(gctx, userID, now.Add(-m.cfg.SpikeWindow))
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		data.events = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// detect runs the four detectors over the gathered snapshot. Detectors are
// pure functions with no shared state, so they fan out concurrently.
func (m *Monitor) detect(ctx context.Context, data *gathered, now time.Time) *RunReport {
	report := &RunReport{}

	// Stable metric order so findings are deterministic across runs.
	names := make([]string, 0, len(data.series))
	for name := range data.series {
		names = append(names, name)
	}
	sort.Strings(names)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, name := range names {
			if finding := DetectAnomaly(name, data.series[name]); finding != nil {
				report.Anomalies = append(report.Anomalies, *finding)
			}
		}
		return nil
	})

	g.Go(func() error {
		for _, name := range names {
			points := data.series[name]
			values := types.NumericValues(points)
			// RecentPoints is newest first; the forecaster wants oldest first.
			for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
				values[i], values[j] = values[j], values[i]
			}
			if f := ForecastSeries(name, values, m.cfg.ForecastHorizon); f != nil {
				report.Forecasts = append(report.Forecasts, *f)
			}
		}
		return nil
	})

	g.Go(func() error {
		report.Cold = DetectColdConnections(data.relationships, now)
		return nil
	})

	g.Go(func() error {
		report.Spikes = DetectCommunicationSpikes(data.events, m.cfg.SpikeThreshold, m.cfg.SpikeWindow, now)
		return nil
	})

	_ = g.Wait() // detectors never return errors
	return report
}

// persist deduplicates findings against fresh stored state and writes the
// survivors. Each finding is isolated: a failure is logged and counted, and
// the remaining findings still persist.
func (m *Monitor) persist(ctx context.Context, userID string, report *RunReport, now time.Time) {
	for i := range report.Cold {
		m.persistColdFinding(ctx, userID, &report.Cold[i], report, now)
	}
	for i := range report.Anomalies {
		m.persistAnomalyFinding(ctx, userID, &report.Anomalies[i], report, now)
	}
	for i := range report.Spikes {
		m.persistSpikeFinding(ctx, userID, &report.Spikes[i], report, now)
	}
}

func (m *Monitor) persistColdFinding(ctx context.Context, userID string, finding *ColdConnectionFinding, report *RunReport, now time.Time) {
	// Fresh read at dedup time, not the gather snapshot.
	existing, err := m.insights.FindUnresolved(ctx, userID, types.InsightColdConnection, finding.Relationship.ID)
	if err == nil && existing != nil {
		report.InsightsSkipped++
		return
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("monitor: cold dedup check failed for user %s, relationship %s: %v", userID, finding.Relationship.ID, err)
		report.PersistFailures++
		return
	}

	insight := &types.Insight{
		ID:              uuid.NewString(),
		UserID:          userID,
		RelationshipID:  finding.Relationship.ID,
		Kind:            types.InsightColdConnection,
		Title:           finding.Title(),
		Description:     finding.Description(),
		Priority:        finding.Priority,
		Confidence:      85,
		ActionSuggested: fmt.Sprintf("Reach out to %s today", finding.Relationship.Contact),
		CreatedAt:       now,
	}
	if err := m.insights.CreateInsight(ctx, insight); err != nil {
		log.Printf("monitor: failed to persist cold insight for user %s, relationship %s: %v", userID, finding.Relationship.ID, err)
		report.PersistFailures++
		return
	}
	report.InsightsCreated++
}

func (m *Monitor) persistAnomalyFinding(ctx context.Context, userID string, finding *AnomalyFinding, report *RunReport, now time.Time) {
	// Anomaly identity is the metric name; an unresolved anomaly insight for
	// the same metric suppresses a new one.
	unresolved, err := m.insights.ListUnresolved(ctx, userID)
	if err != nil {
		log.Printf("monitor: anomaly dedup check failed for user %s, metric %s: %v", userID, finding.Metric, err)
		report.PersistFailures++
		return
	}
	for i := range unresolved {
		if unresolved[i].Kind != types.InsightAnomaly {
			continue
		}
		if metric, ok := unresolved[i].Metadata["metric"].(string); ok && metric == finding.Metric {
			report.InsightsSkipped++
			return
		}
	}

	priority := types.PriorityMedium
	if finding.Severity == SeverityCritical {
		priority = types.PriorityHigh
	}
	insight := &types.Insight{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        types.InsightAnomaly,
		Title:       fmt.Sprintf("Unusual movement in %s", finding.Metric),
		Description: fmt.Sprintf("%s is at %.2f against a recent mean of %.2f (%s).", finding.Metric, finding.Latest, finding.Mean, finding.Severity),
		Priority:    priority,
		Confidence:  80,
		Metadata: map[string]interface{}{
			"metric":   finding.Metric,
			"latest":   finding.Latest,
			"mean":     finding.Mean,
			"severity": string(finding.Severity),
		},
		CreatedAt: now,
	}
	if err := m.insights.CreateInsight(ctx, insight); err != nil {
		log.Printf("monitor: failed to persist anomaly insight for user %s, metric %s: %v", userID, finding.Metric, err)
		report.PersistFailures++
		return
	}
	report.InsightsCreated++
}

func (m *Monitor) persistSpikeFinding(ctx context.Context, userID string, finding *SpikeFinding, report *RunReport, now time.Time) {
	pattern := &types.BehavioralPattern{
		ID:            uuid.NewString(),
		UserID:        userID,
		PatternType:   types.PatternCommunicationSpike,
		Name:          fmt.Sprintf("Communication spike: %s", finding.Contact),
		Description:   fmt.Sprintf("%d outbound messages to %s on %s", finding.Count, finding.Contact, finding.Day),
		Confidence:    75,
		FirstDetected: now,
		LastDetected:  now,
		Occurrences:   1,
		Metadata: types.PatternMetadata{Spike: &types.SpikeMetadata{
			Contact: finding.Contact,
			Count:   finding.Count,
			Day:     finding.Day,
		}},
	}
	// Upsert keys on (user, type, contact): re-detection advances
	// LastDetected and increments Occurrences in place.
	if err := m.patterns.UpsertPattern(ctx, pattern); err != nil {
		log.Printf("monitor: failed to upsert spike pattern for user %s, contact %s: %v", userID, finding.Contact, err)
		report.PersistFailures++
		return
	}
	report.PatternsUpserted++
}

// recordActivity writes a diagnostic entry for the pass. Failures are logged
// and ignored; the activity log is never load-bearing.
func (m *Monitor) recordActivity(ctx context.Context, userID string, report *RunReport, now time.Time) {
	if m.activity == nil {
		return
	}
	entry := &types.ActivityEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Component: "monitor",
		Action:    "run",
		Detail: map[string]interface{}{
			"anomalies":         len(report.Anomalies),
			"forecasts":         len(report.Forecasts),
			"cold_connections":  len(report.Cold),
			"spikes":            len(report.Spikes),
			"insights_created":  report.InsightsCreated,
			"insights_skipped":  report.InsightsSkipped,
			"patterns_upserted": report.PatternsUpserted,
			"persist_failures":  report.PersistFailures,
		},
		CreatedAt: now,
	}
	if err := m.activity.RecordActivity(ctx, entry); err != nil {
		log.Printf("monitor: failed to record activity for user %s: %v", userID, err)
	}
}

// RecordInteraction ingests one communication event, creating the
// relationship on first contact and advancing its recency and interaction
// count otherwise. The event's RelationshipID is filled in before insertion.
func (m *Monitor) RecordInteraction(ctx context.Context, event *types.CommunicationEvent) error {
	if event == nil || event.UserID == "" || event.Contact == "" {
		return fmt.Errorf("%w: userID and contact are required", storage.ErrInvalidInput)
	}
	if !types.IsValidEventType(string(event.EventType)) {
		return fmt.Errorf("%w: unknown event type %q", storage.ErrInvalidInput, event.EventType)
	}
	now := m.now()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	rel, err := m.ledger.FindByContact(ctx, event.UserID, event.Contact)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rel = &types.Relationship{
			ID:               uuid.NewString(),
			UserID:           event.UserID,
			Contact:          event.Contact,
			Importance:       defaultImportance,
			ExpectedInterval: defaultExpectedInterval,
			CreatedAt:        now,
		}
	case err != nil:
		return fmt.Errorf("failed to look up relationship: %w", err)
	}

	if rel.LastContactAt == nil || event.OccurredAt.After(*rel.LastContactAt) {
		t := event.OccurredAt
		rel.LastContactAt = &t
	}
	rel.TotalInteractions++
	rel.UpdatedAt = now

	if err := m.ledger.UpsertRelationship(ctx, rel); err != nil {
		return fmt.Errorf("failed to upsert relationship: %w", err)
	}

	event.RelationshipID = rel.ID
	if err := m.ledger.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// RelationshipHealth computes the current health score for one relationship
// from its stored state and the last seven days of events.
func (m *Monitor) RelationshipHealth(ctx context.Context, userID, relationshipID string) (int, error) {
	rel, err := m.ledger.GetRelationship(ctx, relationshipID)
	if err != nil {
		return 0, err
	}
	now := m.now()
	events, err := m.ledger.ListEventsForRelationship(ctx, userID, relationshipID, now.Add(-7*24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("failed to list recent events: %w", err)
	}
	return HealthScore(rel, len(events), now), nil
}

// ContactSummary aggregates a user's communication with one contact.
type ContactSummary struct {
	Contact      string
	Total        int
	Sent         int
	Received     int
	LastEventAt  time.Time
	TopSentiment types.Sentiment // majority sentiment; empty when none recorded
}

// EmailPatternSummary aggregates communication events since the given time
// into per-contact totals, ordered by total descending.
func (m *Monitor) EmailPatternSummary(ctx context.Context, userID string, since time.Time) ([]ContactSummary, error) {
	events, err := m.ledger.ListEvents(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	byContact := make(map[string]*ContactSummary)
	sentiments := make(map[string]map[types.Sentiment]int)
	for _, ev := range events {
		s := byContact[ev.Contact]
		if s == nil {
			s = &ContactSummary{Contact: ev.Contact}
			byContact[ev.Contact] = s
			sentiments[ev.Contact] = make(map[types.Sentiment]int)
		}
		s.Total++
		if ev.EventType.IsOutbound() {
			s.Sent++
		} else {
			s.Received++
		}
		if ev.OccurredAt.After(s.LastEventAt) {
			s.LastEventAt = ev.OccurredAt
		}
		if ev.Sentiment != "" {
			sentiments[ev.Contact][ev.Sentiment]++
		}
	}

	summaries := make([]ContactSummary, 0, len(byContact))
	for contact, s := range byContact {
		best := 0
		for sentiment, n := range sentiments[contact] {
			if n > best {
				best = n
				s.TopSentiment = sentiment
			}
		}
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Total != summaries[j].Total {
			return summaries[i].Total > summaries[j].Total
		}
		return summaries[i].Contact < summaries[j].Contact
	})
	return summaries, nil
}
