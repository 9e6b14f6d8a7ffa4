package types

import "time"

// ActivityEntry records one pass of an engine component for diagnostics.
type ActivityEntry struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Component string                 `json:"component"` // e.g. "monitor", "forecaster", "composer"
	Action    string                 `json:"action"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
