package types

import "time"

// EventType identifies the channel of a communication event.
type EventType string

const (
	EventEmailSent     EventType = "email_sent"
	EventEmailReceived EventType = "email_received"
	EventCall          EventType = "call"
	EventMeeting       EventType = "meeting"
	EventText          EventType = "text"
)

// IsValidEventType reports whether t is a recognized communication channel.
func IsValidEventType(t string) bool {
	switch EventType(t) {
	case EventEmailSent, EventEmailReceived, EventCall, EventMeeting, EventText:
		return true
	}
	return false
}

// IsOutbound reports whether the event type represents outbound contact
// initiated by the user. Only outbound events count toward spike detection.
func (t EventType) IsOutbound() bool {
	return t == EventEmailSent || t == EventText
}

// Sentiment is the coarse emotional tone attached to a communication event.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Relationship tracks contact cadence with a single person. A relationship is
// created on the first observed interaction and mutated on every subsequent
// one (LastContactAt advanced, TotalInteractions incremented). The engine
// never deletes relationships.
type Relationship struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Contact           string     `json:"contact"`           // Contact identity (email address or name)
	Importance        int        `json:"importance"`        // 1 (peripheral) to 10 (critical)
	ExpectedInterval  int        `json:"expected_interval"` // Expected days between contacts
	LastContactAt     *time.Time `json:"last_contact_at,omitempty"`
	TotalInteractions int        `json:"total_interactions"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DaysSinceContact returns whole days elapsed since the last contact, and
// false when the relationship has never been contacted.
func (r *Relationship) DaysSinceContact(now time.Time) (int, bool) {
	if r.LastContactAt == nil {
		return 0, false
	}
	return int(now.Sub(*r.LastContactAt).Hours() / 24), true
}

// CommunicationEvent is an immutable record of one interaction with a contact.
// Events are the sole driver of relationship recency and health.
type CommunicationEvent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	RelationshipID  string    `json:"relationship_id,omitempty"`
	EventType       EventType `json:"event_type"`
	Contact         string    `json:"contact"`
	Subject         string    `json:"subject,omitempty"`
	Sentiment       Sentiment `json:"sentiment,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}
