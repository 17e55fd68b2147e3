package handler

import (
	"log/slog"
	"net/http"

	"zeto/internal/config"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
	"zeto/internal/httputil"
	"zeto/internal/service/project"
)

// ConversationHandler exposes the per-project conversation history.
type ConversationHandler struct {
	repo     repositories.ConversationRepository
	projects *project.Service
	logger   *slog.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(repo repositories.ConversationRepository, projects *project.Service, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{repo: repo, projects: projects, logger: logger}
}

type conversationResponse struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.ChatMessage `json:"messages"`
	NextCursor   *string              `json:"next_cursor,omitempty"`
}

// Get handles GET /api/projects/{id}/conversation?cursor=...&limit=...
// The conversation is created lazily on first read.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	userID := httputil.GetUserID(r.Context())

	if err := h.projects.CanAccess(r.Context(), projectID, userID, models.PermView); err != nil {
		handleError(w, h.logger, err)
		return
	}

	conv, err := h.repo.GetOrCreateConversation(r.Context(), projectID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > config.MaxMessagePageSize {
		limit = config.MaxMessagePageSize
	}
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	page, err := h.repo.ListMessages(r.Context(), conv.ID, cursor, limit)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conversationResponse{
		Conversation: conv,
		Messages:     page.Messages,
		NextCursor:   page.NextCursor,
	})
}
