package chat

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"zeto/internal/config"
	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
	llmSvc "zeto/internal/domain/services/llm"
)

// ProviderRegistry resolves a model name to a completion provider.
type ProviderRegistry interface {
	ForModel(model string) (llmSvc.Provider, error)
}

// AccessChecker gates chat operations on project membership.
type AccessChecker interface {
	CanAccess(ctx context.Context, projectID, userID string, perm models.Permission) error
}

// InlineFile is document content supplied directly in the request body
// instead of by id. Kept for clients that assemble context themselves.
type InlineFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Request is one chat request, covering both request variants: documents by
// id (resolved against the document store, optionally locked to a project)
// and inline file content.
type Request struct {
	UserID    string
	Message   string
	Model     string
	ProjectID string
	FileIDs   []string
	Files     []InlineFile
}

// Used reports what grounding a response was actually built from.
type Used struct {
	ProjectID *string                  `json:"projectId"`
	FileIDs   []string                 `json:"fileIds"`
	Missing   []models.MissingDocument `json:"missing"`
}

// Result is a completed non-streaming chat exchange.
type Result struct {
	Response string `json:"response"`
	Used     Used   `json:"used"`
}

// Service is the chat relay: it resolves document references, assembles
// prompt context, calls the completion provider, and persists the exchange
// on the project conversation.
type Service struct {
	registry ProviderRegistry
	access   AccessChecker
	docRepo  repositories.DocumentRepository
	convRepo repositories.ConversationRepository
	cfg      *config.Config
	logger   *slog.Logger
}

// NewService creates a new chat relay service.
func NewService(
	registry ProviderRegistry,
	access AccessChecker,
	docRepo repositories.DocumentRepository,
	convRepo repositories.ConversationRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		registry: registry,
		access:   access,
		docRepo:  docRepo,
		convRepo: convRepo,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Service) validate(req *Request) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, config.MaxMessageLength)),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

// prepare runs everything shared by both modes: validation, provider
// resolution (fail fast on missing credentials, before any work), document
// resolution and prompt assembly.
func (s *Service) prepare(ctx context.Context, req *Request) (llmSvc.Provider, *models.PromptContext, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	// Chatting on a project conversation requires membership.
	if req.ProjectID != "" {
		if err := s.access.CanAccess(ctx, req.ProjectID, req.UserID, models.PermChat); err != nil {
			return nil, nil, err
		}
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	// Credential check happens before document lookups or any upstream
	// call; a missing key must never be discovered mid-stream.
	provider, err := s.registry.ForModel(model)
	if err != nil {
		return nil, nil, err
	}

	refs, err := s.resolveRefs(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	prompt, err := Assemble(req.Message, refs, Limits{
		MaxDocs:        config.MaxContextDocuments,
		MaxCharsPerDoc: config.MaxCharsPerDocument,
	})
	if err != nil {
		return nil, nil, err
	}

	return provider, prompt, nil
}

// resolveRefs turns the request's document references into assembler inputs.
// Inline files take their content as-is; fileIds are fetched in one round
// trip, and project scoping is applied according to the configured lock
// policy.
func (s *Service) resolveRefs(ctx context.Context, req *Request) ([]ContextDocument, error) {
	refs := make([]ContextDocument, 0, len(req.Files)+len(req.FileIDs))

	for i, f := range req.Files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("file_%d", i+1)
		}
		mimeType := f.Type
		if mimeType == "" {
			mimeType = "unknown"
		}
		content := f.Content
		refs = append(refs, ContextDocument{
			ID:       name,
			Name:     name,
			MimeType: mimeType,
			Text:     &content,
		})
	}

	if len(req.FileIDs) == 0 {
		return refs, nil
	}

	docs, err := s.docRepo.GetDocuments(ctx, req.FileIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}

	// Membership is checked once per distinct project the fileIds resolve
	// to. The request's own project was already checked in prepare.
	visible := make(map[string]bool)
	if req.ProjectID != "" {
		visible[req.ProjectID] = true
	}

	var mismatched []string
	for _, id := range req.FileIDs {
		doc, ok := docs[id]
		if !ok {
			refs = append(refs, ContextDocument{ID: id})
			continue
		}

		canView, checked := visible[doc.ProjectID]
		if !checked {
			canView = s.access.CanAccess(ctx, doc.ProjectID, req.UserID, models.PermView) == nil
			visible[doc.ProjectID] = canView
		}
		if !canView {
			// Documents in projects the caller is not a member of look
			// exactly like documents that do not exist.
			refs = append(refs, ContextDocument{ID: id})
			continue
		}

		ref := ContextDocument{
			ID:       doc.ID,
			Name:     doc.Name,
			MimeType: doc.MimeType,
			Text:     doc.ExtractedText,
		}
		if req.ProjectID != "" && doc.ProjectID != req.ProjectID {
			ref.WrongProject = true
			mismatched = append(mismatched, id)
		}
		refs = append(refs, ref)
	}

	// Strict lock rejects outright instead of excluding and reporting.
	if s.cfg.StrictProjectLock && len(mismatched) > 0 {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("documents %v do not belong to project %s", mismatched, req.ProjectID),
		}
	}

	return refs, nil
}

func (s *Service) used(req *Request, prompt *models.PromptContext) Used {
	u := Used{
		FileIDs: make([]string, 0, len(prompt.Sections)),
		Missing: prompt.Missing,
	}
	if u.Missing == nil {
		u.Missing = []models.MissingDocument{}
	}
	if req.ProjectID != "" {
		projectID := req.ProjectID
		u.ProjectID = &projectID
	}
	for _, sec := range prompt.Sections {
		u.FileIDs = append(u.FileIDs, sec.DocumentID)
	}
	return u
}

// Send handles single-shot mode: it awaits the provider fully and returns
// one response envelope.
func (s *Service) Send(ctx context.Context, req *Request) (*Result, error) {
	provider, prompt, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	if err := s.persistUserMessage(ctx, req); err != nil {
		return nil, err
	}

	text, err := provider.Complete(ctx, &llmSvc.CompletionRequest{Prompt: prompt, Model: model})
	if err != nil {
		return nil, err
	}

	s.persistAssistantMessage(ctx, req, text)

	return &Result{
		Response: text,
		Used:     s.used(req, prompt),
	}, nil
}

// SendStream handles streaming mode. The returned channel carries deltas in
// upstream order followed by exactly one terminal event. On normal
// completion the accumulated text is persisted as the assistant message
// before the done event is forwarded.
func (s *Service) SendStream(ctx context.Context, req *Request) (<-chan llmSvc.StreamEvent, error) {
	provider, prompt, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	if err := s.persistUserMessage(ctx, req); err != nil {
		return nil, err
	}

	upstream, err := provider.CompleteStream(ctx, &llmSvc.CompletionRequest{Prompt: prompt, Model: model})
	if err != nil {
		return nil, err
	}

	out := make(chan llmSvc.StreamEvent, 10)

	go func() {
		defer close(out)

		var accumulated []byte
		for event := range upstream {
			if event.Delta != "" {
				accumulated = append(accumulated, event.Delta...)
			}
			if event.Done {
				s.persistAssistantMessage(ctx, req, string(accumulated))
			}

			select {
			case <-ctx.Done():
				// Downstream consumer is gone: stop pulling deltas and
				// release the upstream stream via ctx cancellation.
				return
			case out <- event:
			}

			if event.Done || event.Err != nil {
				return
			}
		}
	}()

	return out, nil
}

// persistUserMessage appends the user's message to the project conversation
// before the upstream call, so the query is recorded even when the
// completion fails. Requests without a project are free-floating and leave
// no trace.
func (s *Service) persistUserMessage(ctx context.Context, req *Request) error {
	if req.ProjectID == "" {
		return nil
	}

	conv, err := s.convRepo.GetOrCreateConversation(ctx, req.ProjectID)
	if err != nil {
		return err
	}

	return s.convRepo.AppendMessage(ctx, &models.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        req.Message,
	})
}

// persistAssistantMessage appends the completed response. Failures are
// logged, not surfaced: the user already has the answer on the wire and the
// conversation log is best-effort.
func (s *Service) persistAssistantMessage(ctx context.Context, req *Request, text string) {
	if req.ProjectID == "" || text == "" {
		return
	}

	conv, err := s.convRepo.GetOrCreateConversation(ctx, req.ProjectID)
	if err != nil {
		s.logger.Error("failed to load conversation for assistant message", "project_id", req.ProjectID, "error", err)
		return
	}

	err = s.convRepo.AppendMessage(ctx, &models.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        text,
	})
	if err != nil {
		s.logger.Error("failed to persist assistant message", "project_id", req.ProjectID, "error", err)
	}
}
