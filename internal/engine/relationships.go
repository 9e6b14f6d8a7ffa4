package engine

import (
	"fmt"
	"time"

	"github.com/vigil-app/vigil/pkg/types"
)

// ColdConnectionFinding reports a relationship overdue for contact.
type ColdConnectionFinding struct {
	Relationship   types.Relationship
	DaysSince      int  // whole days since last contact; meaningless when NeverContacted
	NeverContacted bool // lastContactAt was absent
	Priority       types.Priority
}

// Title renders the finding's insight title.
func (f *ColdConnectionFinding) Title() string {
	return fmt.Sprintf("Reconnect with %s", f.Relationship.Contact)
}

// Description renders the finding's insight description.
func (f *ColdConnectionFinding) Description() string {
	if f.NeverContacted {
		return fmt.Sprintf("You have never contacted %s. Their expected cadence is every %d days.",
			f.Relationship.Contact, f.Relationship.ExpectedInterval)
	}
	return fmt.Sprintf("Last contact with %s was %d days ago, past the expected %d-day cadence.",
		f.Relationship.Contact, f.DaysSince, f.Relationship.ExpectedInterval)
}

// DetectColdConnections flags relationships whose days since last contact
// exceed their expected interval. A relationship never contacted is treated
// as infinitely overdue. Importance 8 or above raises priority to high,
// otherwise medium.
//
// Pure function over its inputs; dedup against existing insights is the
// orchestrator's job.
func DetectColdConnections(rels []types.Relationship, now time.Time) []ColdConnectionFinding {
	var findings []ColdConnectionFinding
	for _, rel := range rels {
		days, contacted := rel.DaysSinceContact(now)
		if contacted && days <= rel.ExpectedInterval {
			continue
		}

		priority := types.PriorityMedium
		if rel.Importance >= 8 {
			priority = types.PriorityHigh
		}

		findings = append(findings, ColdConnectionFinding{
			Relationship:   rel,
			DaysSince:      days,
			NeverContacted: !contacted,
			Priority:       priority,
		})
	}
	return findings
}

// SpikeFinding reports an abnormal burst of outbound contact toward one
// contact on one calendar day.
type SpikeFinding struct {
	Contact string
	Count   int    // outbound events observed on the spike day
	Day     string // calendar day in YYYY-MM-DD form
}

// DetectCommunicationSpikes scans a trailing window of communication events
// for days where a single contact received threshold or more outbound events.
// Only outbound event types count. When a contact spikes on multiple days in
// the window, the day with the highest count is reported.
//
// Pure function over its inputs; pattern upsert is the orchestrator's job.
func DetectCommunicationSpikes(events []types.CommunicationEvent, threshold int, window time.Duration, now time.Time) []SpikeFinding {
	if threshold <= 0 {
		threshold = DefaultSpikeThreshold
	}
	if window <= 0 {
		window = DefaultSpikeWindowDays * 24 * time.Hour
	}
	cutoff := now.Add(-window)

	// contact -> day -> outbound count
	counts := make(map[string]map[string]int)
	for _, ev := range events {
		if !ev.EventType.IsOutbound() {
			continue
		}
		if ev.OccurredAt.Before(cutoff) || ev.OccurredAt.After(now) {
			continue
		}
		day := ev.OccurredAt.Format("2006-01-02")
		if counts[ev.Contact] == nil {
			counts[ev.Contact] = make(map[string]int)
		}
		counts[ev.Contact][day]++
	}

	var findings []SpikeFinding
	for contact, days := range counts {
		best := SpikeFinding{Contact: contact}
		for day, n := range days {
			if n > best.Count || (n == best.Count && day > best.Day) {
				best.Count = n
				best.Day = day
			}
		}
		if best.Count >= threshold {
			findings = append(findings, best)
		}
	}
	return findings
}
