package repositories

import (
	"context"

	"zeto/internal/domain/models"
)

// MessagePage is one keyset-paginated slice of a conversation.
type MessagePage struct {
	Messages   []models.ChatMessage `json:"messages"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

// ConversationRepository persists the per-project conversation and its
// append-only message sequence.
type ConversationRepository interface {
	// GetOrCreateConversation returns the project's conversation, creating
	// it on first access.
	GetOrCreateConversation(ctx context.Context, projectID string) (*models.Conversation, error)

	// AppendMessage appends to the conversation and bumps its updated_at.
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error

	// ListMessages returns messages in append order starting after cursor
	// (a message id), limited to limit.
	ListMessages(ctx context.Context, conversationID string, cursor *string, limit int) (*MessagePage, error)
}
