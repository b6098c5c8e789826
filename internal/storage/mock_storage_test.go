package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"equiprent-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStorage_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewMockStorageService("http://localhost:8080/", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveFile(ctx, "receipts/abc.png", "image/png", strings.NewReader("hello world"), 5))

	exists, size, err := s.FileExists(ctx, "receipts/abc.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(5), size)

	rc, err := s.ReadFile(ctx, "receipts/abc.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	url, err := s.GeneratePresignedDownloadURL(ctx, "receipts/abc.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1/files/receipts/abc.png", url)

	require.NoError(t, s.DeleteFile(ctx, "receipts/abc.png"))
	exists, _, err = s.FileExists(ctx, "receipts/abc.png")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting twice is not an error.
	assert.NoError(t, s.DeleteFile(ctx, "receipts/abc.png"))
}

func TestMockStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewMockStorageService("", t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "a/../../b"} {
		err := s.SaveFile(ctx, key, "text/plain", strings.NewReader("x"), -1)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, err = s.ReadFile(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StorageConfig{Type: "mock", UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &MockStorageService{}, s)

	_, err = New(ctx, config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Type: "s3"})
	assert.Error(t, err)
}
