package services

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"donation-platform/internal/config"
)

// UploadsDir is where the local fallback storage keeps files
var UploadsDir = filepath.Join("data", "uploads")

// NewStorageService returns R2 storage backed by local disk, or local disk
// alone when R2 is not configured or unreachable.
func NewStorageService(cfg *config.Config) StorageService {
	fallback := NewFallbackStorageService(UploadsDir, cfg.Server.PublicURL)

	r2Service, err := NewR2Service(cfg.R2)
	if err != nil {
		log.Printf("Warning: R2 storage unavailable, using local storage only: %v", err)
		return fallback
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r2Service.HealthCheck(ctx); err != nil {
		log.Printf("Warning: R2 health check failed, using local storage only: %v", err)
		return fallback
	}

	log.Printf("R2 storage initialized (bucket %s)", cfg.R2.BucketName)
	return NewStorageServiceWithFallback(r2Service, fallback)
}
