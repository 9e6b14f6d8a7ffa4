package types

import (
	"encoding/json"
	"time"
)

// PatternType categorizes a recurring behavioral signal.
type PatternType string

const (
	PatternCommunicationSpike PatternType = "communication_spike"
)

// SpikeMetadata carries the typed payload of a communication_spike pattern.
type SpikeMetadata struct {
	Contact string `json:"contact"` // Contact identity receiving the burst
	Count   int    `json:"count"`   // Outbound events observed on the spike day
	Day     string `json:"day"`     // Spike day in YYYY-MM-DD form
}

// PatternMetadata is a tagged union over the per-type metadata shapes.
// Exactly one typed field is set for known pattern types; Unknown preserves
// payloads the engine does not yet understand so they round-trip intact.
type PatternMetadata struct {
	Spike   *SpikeMetadata
	Unknown json.RawMessage
}

// MarshalJSON emits the typed payload when present, otherwise the preserved
// raw payload, otherwise null.
func (m PatternMetadata) MarshalJSON() ([]byte, error) {
	if m.Spike != nil {
		return json.Marshal(m.Spike)
	}
	if len(m.Unknown) > 0 {
		return m.Unknown, nil
	}
	return []byte("null"), nil
}

// DecodePatternMetadata decodes raw metadata JSON according to the pattern
// type. Unrecognized types land in Unknown rather than failing.
func DecodePatternMetadata(patternType PatternType, raw []byte) (PatternMetadata, error) {
	if len(raw) == 0 {
		return PatternMetadata{}, nil
	}
	switch patternType {
	case PatternCommunicationSpike:
		var spike SpikeMetadata
		if err := json.Unmarshal(raw, &spike); err != nil {
			return PatternMetadata{}, err
		}
		return PatternMetadata{Spike: &spike}, nil
	default:
		return PatternMetadata{Unknown: json.RawMessage(raw)}, nil
	}
}

// BehavioralPattern is a recurring signal detected across a user's events.
// Pattern identity is the tuple (UserID, PatternType, metadata-derived key):
// re-detection of the same key updates LastDetected and Occurrences instead
// of creating a duplicate.
type BehavioralPattern struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	PatternType   PatternType     `json:"pattern_type"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Confidence    int             `json:"confidence"` // 0-100
	FirstDetected time.Time       `json:"first_detected"`
	LastDetected  time.Time       `json:"last_detected"`
	Occurrences   int             `json:"occurrences"`
	Metadata      PatternMetadata `json:"metadata"`
}

// Key derives the identity key from the pattern's metadata. For
// communication_spike patterns this is the contact identity. Patterns with
// unknown metadata have no derivable key and return an empty string.
func (p *BehavioralPattern) Key() string {
	if p.Metadata.Spike != nil {
		return p.Metadata.Spike.Contact
	}
	return ""
}
