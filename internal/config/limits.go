package config

import "time"

const (
	// MaxContextDocuments is the maximum number of documents included in a
	// single prompt. Documents past this count are silently dropped, in the
	// order they were supplied.
	MaxContextDocuments = 5

	// MaxCharsPerDocument is the hard per-document character cutoff applied
	// when assembling prompt context. The cutoff is character-based, not
	// token-aware, so the payload bound is approximate but cheap to enforce.
	MaxCharsPerDocument = 6000

	// MaxProjectNameLength bounds project names. Limited to 255 to fit in
	// PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxDocumentNameLength bounds document display names. Same limit as
	// project names for consistency.
	MaxDocumentNameLength = 255

	// MaxMessageLength bounds a single chat message. Generous, but prevents
	// multi-megabyte bodies from reaching the completion API.
	MaxMessageLength = 32_000

	// KeepAliveInterval is how often SSE ping comments are written while a
	// stream is open. 15 seconds is safe for common reverse proxies.
	KeepAliveInterval = 15 * time.Second

	// MaxMessagePageSize caps conversation message pagination.
	MaxMessagePageSize = 200
)
