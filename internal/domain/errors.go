package domain

import (
	"errors"
	"fmt"
	"net/http"

	"zeto/internal/domain/models"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Handlers use it to translate domain failures without switching on
// concrete types.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}

	// ConfigError indicates a missing or invalid server-side configuration
	// value (e.g. no completion API credential). It is detected before any
	// upstream call is made and is never retried.
	ConfigError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }
func (e *ConfigError) Error() string       { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }
func (e *ConfigError) StatusCode() int       { return http.StatusInternalServerError }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// EmptyQueryError indicates a chat message that is empty after trimming.
// Caller error, never retried.
type EmptyQueryError struct{}

func (e *EmptyQueryError) Error() string        { return "message is empty" }
func (e *EmptyQueryError) StatusCode() int      { return http.StatusBadRequest }
func (e *EmptyQueryError) Is(target error) bool { return target == ErrValidation }

// NoUsableContextError indicates the caller asked for grounded chat but none
// of the referenced documents had usable text. Caller error (bad input), not
// a transient failure: it enumerates which ids were unusable and why.
type NoUsableContextError struct {
	Missing []models.MissingDocument
}

func (e *NoUsableContextError) Error() string {
	return fmt.Sprintf("none of the %d referenced documents have usable text", len(e.Missing))
}

func (e *NoUsableContextError) StatusCode() int      { return http.StatusBadRequest }
func (e *NoUsableContextError) Is(target error) bool { return target == ErrValidation }

// NoExtractableTextError indicates a parsed PDF yielded no text at all, e.g.
// a scanned image without an OCR layer. The document stays unextracted.
type NoExtractableTextError struct {
	FileID string
}

func (e *NoExtractableTextError) Error() string {
	return fmt.Sprintf("no extractable text found in document %s", e.FileID)
}

func (e *NoExtractableTextError) StatusCode() int { return http.StatusUnprocessableEntity }

// AuthError indicates the configured completion API credential was rejected
// upstream (HTTP 401). Distinguished from generic UpstreamError so operators
// can tell a broken API key apart from a transient upstream issue.
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s API key was rejected, check your configuration", e.Provider)
}

func (e *AuthError) StatusCode() int { return http.StatusUnauthorized }

// UpstreamError indicates a non-2xx response from the hosted completion API
// other than 401.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamError) StatusCode() int { return http.StatusBadGateway }

// ErrStreamInterrupted indicates the connection to the hosted completion API
// dropped mid-stream. Callers must be able to distinguish this from a stream
// that completed normally.
var ErrStreamInterrupted = errors.New("completion stream interrupted")

// ErrCancelled indicates the consumer aborted a stream before completion.
var ErrCancelled = errors.New("cancelled")
