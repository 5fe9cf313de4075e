package services

import (
	"context"
	"io"
	"time"
)

// StorageService defines the interface for file storage operations
type StorageService interface {
	// Upload uploads a file to storage and returns the public URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Delete removes a file from storage
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a file
	GetURL(key string) string

	// Exists checks if a file exists in storage
	Exists(ctx context.Context, key string) (bool, error)
}

// ImageMetadata contains metadata about an uploaded image
type ImageMetadata struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ImageVariant represents a resized copy of an uploaded image
type ImageVariant struct {
	Name   string `json:"name"` // thumbnail, card, cover
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

// ImageUploadResult contains the result of an image upload operation
type ImageUploadResult struct {
	Original ImageMetadata  `json:"original"`
	Variants []ImageVariant `json:"variants"`
}

// CoverURL returns the URL donors should see for a target, preferring the
// card-sized variant.
func (r *ImageUploadResult) CoverURL() string {
	for _, v := range r.Variants {
		if v.Name == "card" {
			return v.URL
		}
	}
	return r.Original.URL
}
