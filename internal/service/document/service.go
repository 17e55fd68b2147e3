package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"zeto/internal/config"
	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
	"zeto/internal/service/project"
	"zeto/internal/storage"
)

// UploadRequest carries an uploaded file and its metadata.
type UploadRequest struct {
	ProjectID string
	Name      string
	MimeType  string
	Size      int64
	Body      io.Reader
}

// ExtractRequest identifies a PDF to pull text out of.
type ExtractRequest struct {
	FileID    string
	FileName  string
	ProjectID string
	Body      []byte
}

// ExtractResult reports what extraction produced.
type ExtractResult struct {
	FileID      string    `json:"file_id"`
	Characters  int       `json:"characters"`
	Pages       int       `json:"pages"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Service manages project documents: object storage for the bytes, the
// repository for metadata, and the PDF text extraction pipeline that feeds
// the chat assembler.
type Service struct {
	repo     repositories.DocumentRepository
	projects *project.Service
	store    storage.ObjectStore
	logger   *slog.Logger
}

// NewService creates a new document service.
func NewService(repo repositories.DocumentRepository, projects *project.Service, store storage.ObjectStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, projects: projects, store: store, logger: logger}
}

// Upload stores the file bytes and creates the metadata row.
func (s *Service) Upload(ctx context.Context, userID string, req *UploadRequest) (*models.Document, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxDocumentNameLength)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if err := s.projects.CanAccess(ctx, req.ProjectID, userID, models.PermUploadDocument); err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	path := fmt.Sprintf("projects/%s/%s/%s", req.ProjectID, docID, req.Name)

	url, err := s.store.Upload(ctx, path, req.MimeType, req.Body)
	if err != nil {
		return nil, fmt.Errorf("storing %q: %w", req.Name, err)
	}

	doc := &models.Document{
		ID:          docID,
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		MimeType:    req.MimeType,
		SizeBytes:   req.Size,
		StoragePath: path,
		URL:         url,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		// The orphaned object is cleaned up so storage and metadata agree
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			s.logger.Warn("failed to remove orphaned object", "path", path, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID, "project_id", req.ProjectID, "size_bytes", req.Size)

	return doc, nil
}

// Get returns one document after a membership check.
func (s *Service) Get(ctx context.Context, userID, docID string) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.CanAccess(ctx, doc.ProjectID, userID, models.PermView); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns a project's documents.
func (s *Service) List(ctx context.Context, userID, projectID string) ([]models.Document, error) {
	if err := s.projects.CanAccess(ctx, projectID, userID, models.PermView); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, projectID)
}

// Delete removes a document's metadata and its stored bytes.
func (s *Service) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.projects.CanAccess(ctx, doc.ProjectID, userID, models.PermUploadDocument); err != nil {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	if doc.StoragePath != "" {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			s.logger.Warn("failed to delete stored object", "path", doc.StoragePath, "error", err)
		}
	}
	return nil
}

// ExtractPDF pulls text from the given PDF bytes and upserts it onto the
// document row so the assembler can ground answers in it.
func (s *Service) ExtractPDF(ctx context.Context, userID string, req *ExtractRequest) (*ExtractResult, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.FileID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Body, validation.Required),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if err := s.projects.CanAccess(ctx, req.ProjectID, userID, models.PermUploadDocument); err != nil {
		return nil, err
	}

	text, pages, err := extractText(req.Body)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("cannot parse PDF: %v", err)}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &domain.NoExtractableTextError{FileID: req.FileID}
	}

	name := req.FileName
	if name == "" {
		name = req.FileID + ".pdf"
	}
	now := time.Now().UTC()
	if err := s.repo.UpsertExtractedText(ctx, req.FileID, name, req.ProjectID, text, now); err != nil {
		return nil, err
	}

	s.logger.Info("pdf extracted",
		"document_id", req.FileID, "project_id", req.ProjectID,
		"pages", pages, "characters", len(text))

	return &ExtractResult{
		FileID:      req.FileID,
		Characters:  len(text),
		Pages:       pages,
		ExtractedAt: now,
	}, nil
}

// extractText walks every page and concatenates the plain text, one page per
// paragraph. Pages whose content cannot be decoded are skipped rather than
// failing the whole file.
func extractText(body []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", 0, err
	}

	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(content))
	}
	return sb.String(), pages, nil
}
