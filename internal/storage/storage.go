package storage

import (
	"context"
	"errors"
	"io"
)

// ObjectStore is the blob storage capability: upload, public URL issuance,
// delete-by-path. Implementations own URL formatting.
type ObjectStore interface {
	// Upload writes the object and returns its publicly reachable URL.
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)

	// Delete removes the object at the given path. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, path string) error

	Close() error
}

// ErrStorageDisabled is returned when no object store is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// Disabled is an ObjectStore that rejects every operation. Used when the
// server runs without a storage bucket; chat and extraction still work.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	return "", ErrStorageDisabled
}

func (Disabled) Delete(ctx context.Context, path string) error { return ErrStorageDisabled }

func (Disabled) Close() error { return nil }
