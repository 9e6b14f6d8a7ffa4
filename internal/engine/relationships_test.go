package engine

import (
	"testing"
	"time"

	"github.com/vigil-app/vigil/pkg/types"
)

func daysAgo(now time.Time, days int) *time.Time {
	t := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func TestDetectColdConnections(t *testing.T) {
	now := time.Now().UTC()
	rels := []types.Relationship{
		{ID: "r1", Contact: "alice", Importance: 9, ExpectedInterval: 7, LastContactAt: daysAgo(now, 10)},
		{ID: "r2", Contact: "bob", Importance: 4, ExpectedInterval: 7, LastContactAt: daysAgo(now, 10)},
		{ID: "r3", Contact: "carol", Importance: 5, ExpectedInterval: 7, LastContactAt: daysAgo(now, 3)},
	}

	findings := DetectColdConnections(rels, now)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	if findings[0].Relationship.ID != "r1" || findings[0].Priority != types.PriorityHigh {
		t.Errorf("r1: got priority %s, want high", findings[0].Priority)
	}
	if findings[1].Relationship.ID != "r2" || findings[1].Priority != types.PriorityMedium {
		t.Errorf("r2: got priority %s, want medium", findings[1].Priority)
	}
}

func TestDetectColdConnectionsNeverContacted(t *testing.T) {
	now := time.Now().UTC()
	rels := []types.Relationship{
		{ID: "r1", Contact: "dave", Importance: 5, ExpectedInterval: 30},
	}

	findings := DetectColdConnections(rels, now)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if !findings[0].NeverContacted {
		t.Error("expected NeverContacted to be set")
	}
}

func TestDetectColdConnectionsExactlyAtInterval(t *testing.T) {
	now := time.Now().UTC()
	rels := []types.Relationship{
		{ID: "r1", Contact: "erin", Importance: 5, ExpectedInterval: 7, LastContactAt: daysAgo(now, 7)},
	}
	if findings := DetectColdConnections(rels, now); len(findings) != 0 {
		t.Errorf("got %d findings at the interval boundary, want 0", len(findings))
	}
}

func TestDetectCommunicationSpikes(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	events := []types.CommunicationEvent{
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: day},
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: day.Add(time.Hour)},
		{Contact: "alice", EventType: types.EventText, OccurredAt: day.Add(2 * time.Hour)},
		// Inbound and call traffic never counts.
		{Contact: "alice", EventType: types.EventEmailReceived, OccurredAt: day},
		{Contact: "alice", EventType: types.EventCall, OccurredAt: day},
		// Two outbound to bob is below threshold.
		{Contact: "bob", EventType: types.EventEmailSent, OccurredAt: day},
		{Contact: "bob", EventType: types.EventEmailSent, OccurredAt: day.Add(time.Hour)},
	}

	findings := DetectCommunicationSpikes(events, 3, 7*24*time.Hour, now)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Contact != "alice" || f.Count != 3 || f.Day != "2026-08-28" {
		t.Errorf("finding = %+v, want alice/3/2026-08-28", f)
	}
}

func TestDetectCommunicationSpikesWindowCutoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	old := now.Add(-10 * 24 * time.Hour)

	events := []types.CommunicationEvent{
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: old},
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: old.Add(time.Hour)},
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: old.Add(2 * time.Hour)},
	}

	if findings := DetectCommunicationSpikes(events, 3, 7*24*time.Hour, now); len(findings) != 0 {
		t.Errorf("got %d findings outside the window, want 0", len(findings))
	}
}

func TestDetectCommunicationSpikesSpreadAcrossDays(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)

	// Three outbound events spread over three days: no single-day burst.
	events := []types.CommunicationEvent{
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: now.Add(-1 * 24 * time.Hour)},
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: now.Add(-2 * 24 * time.Hour)},
		{Contact: "alice", EventType: types.EventEmailSent, OccurredAt: now.Add(-3 * 24 * time.Hour)},
	}

	if findings := DetectCommunicationSpikes(events, 3, 7*24*time.Hour, now); len(findings) != 0 {
		t.Errorf("got %d findings for spread-out events, want 0", len(findings))
	}
}
