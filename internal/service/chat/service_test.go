package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"zeto/internal/config"
	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
	llmSvc "zeto/internal/domain/services/llm"
)

type fakeProvider struct {
	name     string
	response string
	err      error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SupportsModel(m string) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req *llmSvc.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) CompleteStream(ctx context.Context, req *llmSvc.CompletionRequest) (<-chan llmSvc.StreamEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan llmSvc.StreamEvent, 10)
	go func() {
		defer close(ch)
		for _, word := range strings.SplitAfter(f.response, " ") {
			ch <- llmSvc.StreamEvent{Delta: word}
		}
		ch <- llmSvc.StreamEvent{Done: true}
	}()
	return ch, nil
}

type fakeRegistry struct {
	provider llmSvc.Provider
	err      error
}

func (f *fakeRegistry) ForModel(model string) (llmSvc.Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

type fakeDocRepo struct {
	docs map[string]*models.Document
}

func (f *fakeDocRepo) CreateDocument(ctx context.Context, doc *models.Document) error { return nil }

func (f *fakeDocRepo) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "document not found"}
	}
	return doc, nil
}

func (f *fakeDocRepo) GetDocuments(ctx context.Context, ids []string) (map[string]*models.Document, error) {
	out := make(map[string]*models.Document)
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func (f *fakeDocRepo) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	return nil, nil
}

func (f *fakeDocRepo) DeleteDocument(ctx context.Context, id string) error { return nil }

func (f *fakeDocRepo) UpsertExtractedText(ctx context.Context, docID, name, projectID, text string, extractedAt time.Time) error {
	return nil
}

type fakeAccess struct {
	deny map[string]bool
}

func (f *fakeAccess) CanAccess(ctx context.Context, projectID, userID string, perm models.Permission) error {
	if f.deny[projectID] {
		return &domain.ForbiddenError{Message: "not a member of this project"}
	}
	return nil
}

type fakeConvRepo struct {
	messages []models.ChatMessage
}

func (f *fakeConvRepo) GetOrCreateConversation(ctx context.Context, projectID string) (*models.Conversation, error) {
	return &models.Conversation{ID: "conv-" + projectID, ProjectID: projectID}, nil
}

func (f *fakeConvRepo) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConvRepo) ListMessages(ctx context.Context, conversationID string, cursor *string, limit int) (*repositories.MessagePage, error) {
	return &repositories.MessagePage{Messages: f.messages}, nil
}

func newTestService(provider llmSvc.Provider, docs map[string]*models.Document, convRepo *fakeConvRepo) *Service {
	if convRepo == nil {
		convRepo = &fakeConvRepo{}
	}
	cfg := &config.Config{DefaultModel: "gpt-4o-mini"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(&fakeRegistry{provider: provider}, &fakeAccess{}, &fakeDocRepo{docs: docs}, convRepo, cfg, logger)
}

func TestSendUngrounded(t *testing.T) {
	svc := newTestService(&fakeProvider{name: "test", response: "hello back"}, nil, nil)

	result, err := svc.Send(context.Background(), &Request{UserID: "u1", Message: "hi"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result.Response != "hello back" {
		t.Errorf("Response = %q", result.Response)
	}
	if result.Used.ProjectID != nil {
		t.Errorf("Used.ProjectID = %v, want nil", *result.Used.ProjectID)
	}
	if len(result.Used.FileIDs) != 0 {
		t.Errorf("Used.FileIDs = %v, want empty", result.Used.FileIDs)
	}
	if result.Used.Missing == nil {
		t.Error("Used.Missing must be non-nil")
	}
}

func TestSendGroundedReportsUsage(t *testing.T) {
	text := "quarterly revenue was 1.2M"
	docs := map[string]*models.Document{
		"d1": {ID: "d1", ProjectID: "p1", Name: "report.pdf", ExtractedText: &text},
		"d2": {ID: "d2", ProjectID: "p1", Name: "scan.pdf"}, // no extracted text
	}
	svc := newTestService(&fakeProvider{name: "test", response: "1.2M"}, docs, nil)

	result, err := svc.Send(context.Background(), &Request{
		UserID:    "u1",
		Message:   "what was revenue?",
		ProjectID: "p1",
		FileIDs:   []string{"d1", "d2", "d3"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if result.Used.ProjectID == nil || *result.Used.ProjectID != "p1" {
		t.Errorf("Used.ProjectID = %v, want p1", result.Used.ProjectID)
	}
	if len(result.Used.FileIDs) != 1 || result.Used.FileIDs[0] != "d1" {
		t.Errorf("Used.FileIDs = %v, want [d1]", result.Used.FileIDs)
	}

	reasons := map[string]models.MissingReason{}
	for _, m := range result.Used.Missing {
		reasons[m.ID] = m.Reason
	}
	if reasons["d2"] != models.MissingReasonNoText {
		t.Errorf("d2 reason = %q, want no_text", reasons["d2"])
	}
	if reasons["d3"] != models.MissingReasonAbsent {
		t.Errorf("d3 reason = %q, want not_found", reasons["d3"])
	}
}

func TestSendWrongProjectLenient(t *testing.T) {
	text := "content"
	docs := map[string]*models.Document{
		"other": {ID: "other", ProjectID: "p2", Name: "other.txt", ExtractedText: &text},
		"mine":  {ID: "mine", ProjectID: "p1", Name: "mine.txt", ExtractedText: &text},
	}
	svc := newTestService(&fakeProvider{name: "test", response: "ok"}, docs, nil)

	result, err := svc.Send(context.Background(), &Request{
		UserID:    "u1",
		Message:   "q",
		ProjectID: "p1",
		FileIDs:   []string{"mine", "other"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(result.Used.FileIDs) != 1 || result.Used.FileIDs[0] != "mine" {
		t.Errorf("Used.FileIDs = %v, want [mine]", result.Used.FileIDs)
	}
	if len(result.Used.Missing) != 1 || result.Used.Missing[0].Reason != models.MissingReasonScopeMismatch {
		t.Errorf("Missing = %v, want one wrong_project entry", result.Used.Missing)
	}
}

func TestSendWrongProjectStrict(t *testing.T) {
	text := "content"
	docs := map[string]*models.Document{
		"other": {ID: "other", ProjectID: "p2", Name: "other.txt", ExtractedText: &text},
	}
	cfg := &config.Config{DefaultModel: "gpt-4o-mini", StrictProjectLock: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		&fakeRegistry{provider: &fakeProvider{name: "test", response: "ok"}},
		&fakeAccess{}, &fakeDocRepo{docs: docs}, &fakeConvRepo{}, cfg, logger,
	)

	_, err := svc.Send(context.Background(), &Request{
		UserID: "u1", Message: "q", ProjectID: "p1", FileIDs: []string{"other"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Send() error = %v, want validation error", err)
	}
}

func TestSendForbiddenForNonMember(t *testing.T) {
	convRepo := &fakeConvRepo{}
	cfg := &config.Config{DefaultModel: "gpt-4o-mini"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		&fakeRegistry{provider: &fakeProvider{name: "test", response: "ok"}},
		&fakeAccess{deny: map[string]bool{"p1": true}},
		&fakeDocRepo{}, convRepo, cfg, logger,
	)

	_, err := svc.Send(context.Background(), &Request{
		UserID: "outsider", Message: "hi", ProjectID: "p1",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Send() error = %v, want forbidden", err)
	}
	// Rejected before anything touched the conversation log.
	if len(convRepo.messages) != 0 {
		t.Errorf("persisted %d messages, want 0", len(convRepo.messages))
	}

	_, err = svc.SendStream(context.Background(), &Request{
		UserID: "outsider", Message: "hi", ProjectID: "p1",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("SendStream() error = %v, want forbidden", err)
	}
}

func TestSendForeignProjectFileHidden(t *testing.T) {
	text := "secret notes"
	mine := "my notes"
	docs := map[string]*models.Document{
		"d9":   {ID: "d9", ProjectID: "p2", Name: "notes.txt", ExtractedText: &text},
		"mine": {ID: "mine", ProjectID: "p1", Name: "mine.txt", ExtractedText: &mine},
	}
	cfg := &config.Config{DefaultModel: "gpt-4o-mini"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		&fakeRegistry{provider: &fakeProvider{name: "test", response: "ok"}},
		&fakeAccess{deny: map[string]bool{"p2": true}},
		&fakeDocRepo{docs: docs}, &fakeConvRepo{}, cfg, logger,
	)

	// No projectId on the request: documents resolve against their own
	// projects, so membership there decides visibility.
	result, err := svc.Send(context.Background(), &Request{
		UserID: "u1", Message: "q", FileIDs: []string{"mine", "d9"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(result.Used.FileIDs) != 1 || result.Used.FileIDs[0] != "mine" {
		t.Errorf("Used.FileIDs = %v, want [mine]", result.Used.FileIDs)
	}
	// Indistinguishable from a document that does not exist.
	if len(result.Used.Missing) != 1 || result.Used.Missing[0].ID != "d9" ||
		result.Used.Missing[0].Reason != models.MissingReasonAbsent {
		t.Errorf("Missing = %v, want d9 as not_found", result.Used.Missing)
	}
}

func TestSendConfigErrorBeforeUpstream(t *testing.T) {
	cfg := &config.Config{DefaultModel: "gpt-4o-mini"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		&fakeRegistry{err: &domain.ConfigError{Message: "no API key"}},
		&fakeAccess{}, &fakeDocRepo{}, &fakeConvRepo{}, cfg, logger,
	)

	_, err := svc.Send(context.Background(), &Request{UserID: "u1", Message: "hi"})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Send() error = %v, want ConfigError", err)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	svc := newTestService(&fakeProvider{name: "test"}, nil, nil)

	for _, msg := range []string{"", "   "} {
		_, err := svc.Send(context.Background(), &Request{UserID: "u1", Message: msg})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Send(%q) error = %v, want validation error", msg, err)
		}
	}
}

func TestSendStreamDeltasAndPersistence(t *testing.T) {
	convRepo := &fakeConvRepo{}
	svc := newTestService(&fakeProvider{name: "test", response: "streamed words here"}, nil, convRepo)

	events, err := svc.SendStream(context.Background(), &Request{
		UserID: "u1", Message: "go", ProjectID: "p1",
	})
	if err != nil {
		t.Fatalf("SendStream() error = %v", err)
	}

	var sb strings.Builder
	var done bool
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("stream error = %v", ev.Err)
		}
		if ev.Done {
			done = true
			continue
		}
		sb.WriteString(ev.Delta)
	}
	if !done {
		t.Fatal("no done event")
	}
	if sb.String() != "streamed words here" {
		t.Errorf("concatenated deltas = %q", sb.String())
	}

	// User message first, full assistant text after completion
	if len(convRepo.messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(convRepo.messages))
	}
	if convRepo.messages[0].Role != models.RoleUser || convRepo.messages[0].Content != "go" {
		t.Errorf("first message = %+v", convRepo.messages[0])
	}
	if convRepo.messages[1].Role != models.RoleAssistant || convRepo.messages[1].Content != "streamed words here" {
		t.Errorf("second message = %+v", convRepo.messages[1])
	}
}

func TestSendStreamNoPersistenceWithoutProject(t *testing.T) {
	convRepo := &fakeConvRepo{}
	svc := newTestService(&fakeProvider{name: "test", response: "hi"}, nil, convRepo)

	events, err := svc.SendStream(context.Background(), &Request{UserID: "u1", Message: "hi"})
	if err != nil {
		t.Fatalf("SendStream() error = %v", err)
	}
	for range events {
	}
	if len(convRepo.messages) != 0 {
		t.Errorf("persisted %d messages, want 0", len(convRepo.messages))
	}
}

func TestSendStreamUpstreamAuthFailure(t *testing.T) {
	svc := newTestService(&fakeProvider{name: "test", err: &domain.AuthError{Provider: "openai"}}, nil, nil)

	_, err := svc.SendStream(context.Background(), &Request{UserID: "u1", Message: "hi"})
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("SendStream() error = %v, want AuthError", err)
	}
}
