package types

import "time"

// MemoryFragment is an embedded text fragment stored for semantic retrieval.
// Fragments are created when a conversation turn or voice transcript is
// recorded; they are never updated and never deleted automatically.
type MemoryFragment struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"user_id"`
	SourceConversationID string                 `json:"source_conversation_id,omitempty"`
	Text                 string                 `json:"text"`
	Embedding            []float64              `json:"embedding,omitempty"`
	EmbeddingModel       string                 `json:"embedding_model,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
}

// ConversationRole identifies the author of a conversation turn.
type ConversationRole string

const (
	RoleUser      ConversationRole = "user"
	RoleAssistant ConversationRole = "assistant"
	RoleSystem    ConversationRole = "system"
)

// ConversationTurn is one message in the companion conversation history.
type ConversationTurn struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Role      ConversationRole       `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
