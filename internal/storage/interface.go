package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"equiprent-backend/internal/config"
)

// StorageInterface is implemented by every upload backend: the local
// filesystem ("mock") and S3-compatible object storage.
type StorageInterface interface {
	// SaveFile writes size bytes from reader under key. A negative size streams
	// until EOF.
	SaveFile(ctx context.Context, key, contentType string, reader io.Reader, size int64) error

	// ReadFile opens a stored file. The caller closes it.
	ReadFile(ctx context.Context, key string) (io.ReadCloser, error)

	// GeneratePresignedDownloadURL returns a URL the client can fetch the file from.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// FileExists checks if a file exists and returns its size
	FileExists(ctx context.Context, key string) (exists bool, size int64, err error)

	DeleteFile(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (StorageInterface, error) {
	switch cfg.Type {
	case "", "mock":
		return NewMockStorageService(cfg.BaseURL, cfg.UploadDir)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
