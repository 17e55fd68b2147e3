package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcstorage "cloud.google.com/go/storage"
)

// GCSStore implements ObjectStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcstorage.Client
	bucket string
	logger *slog.Logger
}

// NewGCSStore creates a GCS-backed object store. Credentials come from the
// environment (application default credentials).
func NewGCSStore(ctx context.Context, bucket string, logger *slog.Logger) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

// Upload writes the object and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(path)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", path, err)
	}

	s.logger.Debug("object uploaded", "bucket", s.bucket, "path", path)

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

// Delete removes the object at path. A missing object is treated as already
// deleted.
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
