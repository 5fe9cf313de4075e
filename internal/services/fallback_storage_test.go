package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewFallbackStorageService(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	service := NewFallbackStorageService(dir, "http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080", service.baseURL)
	assert.Equal(t, "uploads", service.publicDir)

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestFallbackStorageService_UploadExistsDelete(t *testing.T) {
	dir := t.TempDir()
	service := NewFallbackStorageService(dir, "http://localhost:8080")
	ctx := context.Background()

	content := "cover image bytes"
	url, err := service.Upload(ctx, "/campaigns/1/2024/05/01/water-1a2b3c4d/card.jpeg", strings.NewReader(content), "image/jpeg", int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/campaigns/1/2024/05/01/water-1a2b3c4d/card.jpeg", url)

	data, err := os.ReadFile(filepath.Join(dir, "campaigns", "1", "2024", "05", "01", "water-1a2b3c4d", "card.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	exists, err := service.Exists(ctx, "campaigns/1/2024/05/01/water-1a2b3c4d/card.jpeg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, service.Delete(ctx, "campaigns/1/2024/05/01/water-1a2b3c4d/card.jpeg"))
	exists, err = service.Exists(ctx, "campaigns/1/2024/05/01/water-1a2b3c4d/card.jpeg")
	require.NoError(t, err)
	assert.False(t, exists)

	// empty parent directories are pruned up to the base path
	_, err = os.Stat(filepath.Join(dir, "campaigns"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestFallbackStorageService_SizeMismatch(t *testing.T) {
	service := NewFallbackStorageService(t.TempDir(), "http://localhost:8080")
	_, err := service.Upload(context.Background(), "a.txt", strings.NewReader("abc"), "text/plain", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")
}

func TestFallbackStorageService_RejectsTraversal(t *testing.T) {
	service := NewFallbackStorageService(t.TempDir(), "http://localhost:8080")
	ctx := context.Background()

	_, err := service.Upload(ctx, "../../etc/passwd", strings.NewReader("x"), "text/plain", 1)
	assert.Error(t, err)

	_, err = service.Exists(ctx, "patients/../../outside")
	assert.Error(t, err)

	assert.Error(t, service.Delete(ctx, ".."))
}

func TestFallbackStorageService_DeleteMissingIsNoop(t *testing.T) {
	service := NewFallbackStorageService(t.TempDir(), "http://localhost:8080")
	assert.NoError(t, service.Delete(context.Background(), "programs/9/none.png"))
}

func TestStorageServiceWithFallback_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &MockStorageService{}
		primary.On("Upload", ctx, "k.png", mock.Anything, "image/png", int64(3)).Return("https://cdn.example.org/k.png", nil)
		fallback := NewFallbackStorageService(t.TempDir(), "http://localhost:8080")

		url, err := NewStorageServiceWithFallback(primary, fallback).Upload(ctx, "k.png", strings.NewReader("png"), "image/png", 3)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.org/k.png", url)
		primary.AssertExpectations(t)
	})

	t.Run("primary fails, reader is replayed into fallback", func(t *testing.T) {
		primary := &MockStorageService{}
		primary.On("Upload", ctx, "k.png", mock.Anything, "image/png", int64(3)).
			Run(func(args mock.Arguments) {
				// consume part of the reader like a failed network upload would
				buf := make([]byte, 2)
				args.Get(2).(*strings.Reader).Read(buf)
			}).
			Return("", errors.New("r2 unavailable"))
		dir := t.TempDir()
		fallback := NewFallbackStorageService(dir, "http://localhost:8080")

		url, err := NewStorageServiceWithFallback(primary, fallback).Upload(ctx, "k.png", strings.NewReader("png"), "image/png", 3)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/uploads/k.png", url)

		data, err := os.ReadFile(filepath.Join(dir, "k.png"))
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))
	})
}

func TestStorageServiceWithFallback_Delete(t *testing.T) {
	ctx := context.Background()
	primary := &MockStorageService{}
	primary.On("Delete", ctx, "k.png").Return(errors.New("r2 unavailable"))
	fallback := NewFallbackStorageService(t.TempDir(), "http://localhost:8080")

	// one side succeeding is enough
	assert.NoError(t, NewStorageServiceWithFallback(primary, fallback).Delete(ctx, "k.png"))
}
