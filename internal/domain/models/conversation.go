package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is the single chat thread attached to a project, created
// lazily on first access. Its message sequence is append-only; the only
// in-place mutation is replacing a provisional placeholder with its final
// content at the same position.
type Conversation struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one entry in a conversation. Provisional messages are
// client-side placeholders shown while awaiting the first delta; a message
// is never persisted with Provisional set.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Provisional    bool      `json:"is_provisional"`
	CreatedAt      time.Time `json:"created_at"`
}
