package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DownloadPath is the route prefix that serves files from local storage.
const DownloadPath = "/api/v1/files/"

var ErrInvalidKey = errors.New("invalid storage key")

// MockStorageService stores uploads on the local filesystem. It backs
// development setups and tests that run without object storage.
type MockStorageService struct {
	baseURL    string // Server URL (e.g., "http://localhost:8080")
	uploadsDir string
}

func NewMockStorageService(baseURL, uploadsDir string) (*MockStorageService, error) {
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &MockStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadsDir: uploadsDir,
	}, nil
}

// path resolves key inside the uploads directory and rejects traversal.
func (m *MockStorageService) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(m.uploadsDir, filepath.FromSlash(clean)), nil
}

func (m *MockStorageService) SaveFile(ctx context.Context, key, contentType string, reader io.Reader, size int64) error {
	fullPath, err := m.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if size >= 0 {
		reader = io.LimitReader(reader, size)
	}
	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (m *MockStorageService) ReadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := m.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// GeneratePresignedDownloadURL points at the server's own download route; local
// URLs do not expire.
func (m *MockStorageService) GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := m.path(key); err != nil {
		return "", err
	}
	return m.baseURL + DownloadPath + key, nil
}

func (m *MockStorageService) FileExists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := m.path(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (m *MockStorageService) DeleteFile(ctx context.Context, key string) error {
	fullPath, err := m.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
