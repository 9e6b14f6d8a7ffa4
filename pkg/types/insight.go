package types

import "time"

// InsightKind categorizes a proactive insight.
type InsightKind string

const (
	InsightColdConnection     InsightKind = "cold_connection"
	InsightCommunicationSpike InsightKind = "communication_spike"
	InsightProactive          InsightKind = "proactive"
	InsightVoiceAnalysis      InsightKind = "voice_analysis"
	InsightConversation       InsightKind = "conversation"
	InsightAnomaly            InsightKind = "anomaly"
)

// IsValidInsightKind reports whether k is a recognized insight kind.
func IsValidInsightKind(k string) bool {
	switch InsightKind(k) {
	case InsightColdConnection, InsightCommunicationSpike, InsightProactive,
		InsightVoiceAnalysis, InsightConversation, InsightAnomaly:
		return true
	}
	return false
}

// Priority ranks how urgently an insight should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValidPriority reports whether p is a recognized priority level.
func IsValidPriority(p string) bool {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Insight is a system-initiated observation surfaced to the user. Insights of
// kind cold_connection are deduplicated on (UserID, RelationshipID, Kind)
// while an unresolved one exists; the engine never resolves insights itself.
type Insight struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	RelationshipID  string                 `json:"relationship_id,omitempty"`
	Kind            InsightKind            `json:"kind"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Priority        Priority               `json:"priority"`
	Confidence      int                    `json:"confidence"` // 0-100
	ActionSuggested string                 `json:"action_suggested,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
}

// Resolved reports whether the insight has been marked resolved by an
// external action.
func (i *Insight) Resolved() bool {
	return i.ResolvedAt != nil
}
