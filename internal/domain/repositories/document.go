package repositories

import (
	"context"
	"time"

	"zeto/internal/domain/models"
)

// DocumentRepository persists document metadata and extraction output.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, docID string) (*models.Document, error)
	// GetDocuments fetches the given ids in one round trip. Ids that do not
	// exist are simply absent from the result; callers decide whether that
	// is an error.
	GetDocuments(ctx context.Context, docIDs []string) (map[string]*models.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, docID string) error

	// UpsertExtractedText writes extraction output onto the document row,
	// creating the row if the extraction pipeline raced ahead of the
	// metadata write.
	UpsertExtractedText(ctx context.Context, docID, name, projectID, text string, extractedAt time.Time) error
}
