package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"donation-platform/internal/models"
)

// MaxImageSize is the largest cover image accepted for upload
const MaxImageSize = 5 << 20

// ErrImageTooLarge is returned when an upload exceeds MaxImageSize
var ErrImageTooLarge = errors.New("image exceeds maximum allowed size")

// ImageService resizes target cover images and stores them
type ImageService struct {
	storage StorageService
	quality int
}

// NewImageService creates a new image service
func NewImageService(storage StorageService) *ImageService {
	return &ImageService{
		storage: storage,
		quality: 85,
	}
}

// ImageVariantConfig defines the configuration for image variants
type ImageVariantConfig struct {
	Name   string
	Width  int
	Height int
	Crop   bool // fill the box exactly instead of fitting inside it
}

// TargetImageVariants are the sizes generated for every cover image
var TargetImageVariants = []ImageVariantConfig{
	{Name: "thumbnail", Width: 160, Height: 160, Crop: true},
	{Name: "card", Width: 600, Height: 400, Crop: true},
	{Name: "cover", Width: 1200, Height: 630},
}

// UploadTargetImage decodes, resizes and stores a cover image for a target
func (s *ImageService) UploadTargetImage(ctx context.Context, category models.DonationCategory, targetID int, reader io.Reader, filename string) (*ImageUploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if !isValidImageFormat(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	keyPrefix := generateImageKey(category, targetID, filename)
	bounds := img.Bounds()

	originalData, err := s.encode(img, format)
	if err != nil {
		return nil, fmt.Errorf("failed to process original image: %w", err)
	}

	originalKey := fmt.Sprintf("%s/original.%s", keyPrefix, format)
	originalURL, err := s.upload(ctx, originalKey, originalData, getContentType(format))
	if err != nil {
		return nil, fmt.Errorf("failed to upload original image: %w", err)
	}

	result := &ImageUploadResult{
		Original: ImageMetadata{
			Key:         originalKey,
			URL:         originalURL,
			Size:        int64(len(originalData)),
			ContentType: getContentType(format),
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			UploadedAt:  time.Now(),
		},
		Variants: make([]ImageVariant, 0, len(TargetImageVariants)),
	}

	for _, cfg := range TargetImageVariants {
		variant, err := s.createVariant(ctx, img, keyPrefix, cfg, format)
		if err != nil {
			log.Printf("Failed to create image variant %s for %s %d: %v", cfg.Name, category, targetID, err)
			continue
		}
		result.Variants = append(result.Variants, *variant)
	}

	return result, nil
}

func (s *ImageService) createVariant(ctx context.Context, img image.Image, keyPrefix string, cfg ImageVariantConfig, format string) (*ImageVariant, error) {
	var resized *image.NRGBA
	if cfg.Crop {
		resized = imaging.Fill(img, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	data, err := s.encode(resized, format)
	if err != nil {
		return nil, fmt.Errorf("failed to process variant image: %w", err)
	}

	key := fmt.Sprintf("%s/%s.%s", keyPrefix, cfg.Name, format)
	url, err := s.upload(ctx, key, data, getContentType(format))
	if err != nil {
		return nil, fmt.Errorf("failed to upload variant: %w", err)
	}

	b := resized.Bounds()
	return &ImageVariant{
		Name:   cfg.Name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Key:    key,
		URL:    url,
	}, nil
}

func (s *ImageService) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case "png":
		encoder := &png.Encoder{CompressionLevel: png.BestCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format for processing: %s", format)
	}

	return buf.Bytes(), nil
}

func (s *ImageService) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.storage.Upload(ctx, key, bytes.NewReader(data), contentType, int64(len(data)))
}

// DeleteUpload removes the original and every variant of an upload
func (s *ImageService) DeleteUpload(ctx context.Context, result *ImageUploadResult) {
	keys := []string{result.Original.Key}
	for _, v := range result.Variants {
		keys = append(keys, v.Key)
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete image %s: %v", key, err)
		}
	}
}

// generateImageKey builds a unique storage prefix such as
// "campaigns/12/2024/05/01/clean-water-1a2b3c4d".
func generateImageKey(category models.DonationCategory, targetID int, filename string) string {
	id := uuid.New().String()

	baseName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	baseName = models.Slugify(baseName)
	if baseName == "" {
		baseName = "image"
	}

	folder := category.TargetTable()
	if folder == "" {
		folder = "misc"
	}

	return fmt.Sprintf("%s/%d/%s/%s-%s", folder, targetID, time.Now().Format("2006/01/02"), baseName, id[:8])
}

func isValidImageFormat(format string) bool {
	switch format {
	case "jpeg", "jpg", "png":
		return true
	default:
		return false
	}
}

func getContentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
