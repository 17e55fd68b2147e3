package models

import "time"

// Document is a file uploaded to a project. The binary lives in the object
// store at StoragePath; the row carries metadata plus, once extraction has
// run, the extracted text the assembler grounds answers in.
type Document struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Extraction output. ExtractedText is nil until the extraction endpoint
	// has processed the file; empty-but-non-nil means extraction produced no
	// text and the document cannot ground answers.
	ExtractedText *string    `json:"extracted_text,omitempty"`
	ExtractedAt   *time.Time `json:"extracted_at,omitempty"`
}

// HasUsableText reports whether the document can contribute prompt context.
func (d *Document) HasUsableText() bool {
	return d.ExtractedText != nil && *d.ExtractedText != ""
}
