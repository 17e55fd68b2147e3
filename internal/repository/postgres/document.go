package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
)

// PostgresDocumentRepository implements DocumentRepository using PostgreSQL
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new PostgresDocumentRepository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const documentColumns = `id, project_id, name, mime_type, size_bytes, storage_path, url, created_at, updated_at, extracted_text, extracted_at`

func scanDocument(row interface {
	Scan(dest ...interface{}) error
}) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Name,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StoragePath,
		&doc.URL,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.ExtractedText,
		&doc.ExtractedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument inserts a document metadata row
func (r *PostgresDocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, name, mime_type, size_bytes, storage_path, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.ProjectID,
		doc.Name,
		doc.MimeType,
		doc.SizeBytes,
		doc.StoragePath,
		doc.URL,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s already exists: %w", doc.ID, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetDocument retrieves a document by ID
func (r *PostgresDocumentRepository) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, docID))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetDocuments fetches the given ids in one query. Missing ids are absent
// from the returned map.
func (r *PostgresDocumentRepository) GetDocuments(ctx context.Context, docIDs []string) (map[string]*models.Document, error) {
	result := make(map[string]*models.Document, len(docIDs))
	if len(docIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1)`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, docIDs)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		result[doc.ID] = doc
	}

	return result, rows.Err()
}

// ListDocuments retrieves all documents in a project
func (r *PostgresDocumentRepository) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	return docs, rows.Err()
}

// DeleteDocument removes a document row
func (r *PostgresDocumentRepository) DeleteDocument(ctx context.Context, docID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	return nil
}

// UpsertExtractedText writes extraction output onto the document row. The
// upsert keeps the extraction pipeline independent of upload ordering: if
// extraction finishes before the metadata write, the row is created and the
// later metadata write is a no-op on these columns.
func (r *PostgresDocumentRepository) UpsertExtractedText(ctx context.Context, docID, name, projectID, text string, extractedAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, name, mime_type, size_bytes, storage_path, url, created_at, updated_at, extracted_text, extracted_at)
		VALUES ($1, $2, $3, 'application/pdf', 0, '', '', now(), now(), $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET extracted_text = EXCLUDED.extracted_text,
		    extracted_at   = EXCLUDED.extracted_at,
		    updated_at     = now()
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, docID, projectID, name, text, extractedAt); err != nil {
		return fmt.Errorf("upsert extracted text: %w", err)
	}

	return nil
}
