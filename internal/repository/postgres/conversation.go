package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
)

// PostgresConversationRepository implements ConversationRepository using PostgreSQL
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository
func NewConversationRepository(config *RepositoryConfig) repositories.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetOrCreateConversation returns the project's conversation, creating it
// lazily on first access. A unique index on project_id makes the insert
// race-safe: losers of the race fall through to the select.
func (r *PostgresConversationRepository) GetOrCreateConversation(ctx context.Context, projectID string) (*models.Conversation, error) {
	insert := fmt.Sprintf(`
		INSERT INTO %s (project_id, created_at, updated_at)
		VALUES ($1, now(), now())
		ON CONFLICT (project_id) DO NOTHING
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, insert, projectID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, created_at, updated_at
		FROM %s
		WHERE project_id = $1
	`, r.tables.Conversations)

	var conv models.Conversation
	err := executor.QueryRow(ctx, query, projectID).Scan(
		&conv.ID,
		&conv.ProjectID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

// AppendMessage appends a message and bumps the conversation's updated_at.
func (r *PostgresConversationRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
	).Scan(&msg.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("conversation %s: %w", msg.ConversationID, domain.ErrNotFound)
		}
		return fmt.Errorf("append message: %w", err)
	}

	bump := fmt.Sprintf(`UPDATE %s SET updated_at = now() WHERE id = $1`, r.tables.Conversations)
	if _, err := executor.Exec(ctx, bump, msg.ConversationID); err != nil {
		return fmt.Errorf("bump conversation: %w", err)
	}

	return nil
}

// ListMessages returns messages in append order, keyset-paginated by the
// (created_at, id) of the cursor message.
func (r *PostgresConversationRepository) ListMessages(ctx context.Context, conversationID string, cursor *string, limit int) (*repositories.MessagePage, error) {
	executor := GetExecutor(ctx, r.pool)

	var (
		query string
		args  []interface{}
	)

	if cursor != nil && *cursor != "" {
		query = fmt.Sprintf(`
			SELECT id, conversation_id, role, content, created_at
			FROM %s
			WHERE conversation_id = $1
			  AND (created_at, id) > (SELECT created_at, id FROM %s WHERE id = $2)
			ORDER BY created_at ASC, id ASC
			LIMIT $3
		`, r.tables.Messages, r.tables.Messages)
		args = []interface{}{conversationID, *cursor, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, conversation_id, role, content, created_at
			FROM %s
			WHERE conversation_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2
		`, r.tables.Messages)
		args = []interface{}{conversationID, limit + 1}
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &repositories.MessagePage{}
	if len(messages) > limit {
		// Fetched one extra row to detect another page
		messages = messages[:limit]
		next := messages[limit-1].ID
		page.NextCursor = &next
	}
	page.Messages = messages

	return page, nil
}
