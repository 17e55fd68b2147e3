package models

import (
	"fmt"
	"strings"
)

// DocumentSection is one document's contribution to a prompt: the display
// name used as the section label plus the (possibly truncated) text.
type DocumentSection struct {
	DocumentID string
	Name       string
	MimeType   string
	Text       string
}

// PromptContext is the ephemeral, per-request payload handed to a completion
// provider: a fixed system instruction, zero or more labelled document
// sections, and the user query last. It is never persisted.
type PromptContext struct {
	System   string
	Sections []DocumentSection
	Query    string

	// Missing lists referenced documents that were excluded from Sections,
	// with the reason for each. Populated even on success so the relay can
	// report what was actually used.
	Missing []MissingDocument
}

// MissingReason explains why a referenced document could not contribute
// context to a prompt.
type MissingReason string

const (
	MissingReasonAbsent        MissingReason = "not_found"     // no such document
	MissingReasonNoText        MissingReason = "no_text"       // document exists but has no extracted text
	MissingReasonScopeMismatch MissingReason = "wrong_project" // document belongs to a different project
)

// MissingDocument pairs a document id with the reason it was excluded.
type MissingDocument struct {
	ID     string        `json:"id"`
	Reason MissingReason `json:"reason"`
}

// Grounded reports whether the prompt carries document sections.
func (p *PromptContext) Grounded() bool {
	return len(p.Sections) > 0
}

// UserMessage renders the single user-role message sent upstream: the
// labelled document sections first, then the query. Ungrounded prompts are
// just the query.
func (p *PromptContext) UserMessage() string {
	if !p.Grounded() {
		return p.Query
	}

	var b strings.Builder
	b.WriteString("Document context:\n")
	for i, s := range p.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- File %d: %s (%s) ---\n", i+1, s.Name, s.MimeType)
		b.WriteString(s.Text)
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(p.Query)
	return b.String()
}
