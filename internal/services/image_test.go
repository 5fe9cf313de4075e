package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/models"
)

// MockStorageService is a mock implementation of StorageService
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	args := m.Called(ctx, key, reader, contentType, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageService) GetURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockStorageService) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func createTestJPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	return buf.Bytes()
}

func createTestPNG(width, height int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)))
	return buf.Bytes()
}

func TestImageService_UploadTargetImage(t *testing.T) {
	ctx := context.Background()
	storage := &MockStorageService{}
	storage.On("Upload", ctx, mock.AnythingOfType("string"), mock.Anything, "image/jpeg", mock.AnythingOfType("int64")).
		Return("https://cdn.example.org/img.jpeg", nil)

	service := NewImageService(storage)
	result, err := service.UploadTargetImage(ctx, models.CategoryCampaign, 12, bytes.NewReader(createTestJPEG(1600, 900)), "Clean Water.jpg")
	require.NoError(t, err)

	assert.Equal(t, 1600, result.Original.Width)
	assert.Equal(t, 900, result.Original.Height)
	assert.True(t, strings.HasPrefix(result.Original.Key, "campaigns/12/"))
	assert.True(t, strings.HasSuffix(result.Original.Key, "/original.jpeg"))
	assert.Contains(t, result.Original.Key, "clean-water-")

	require.Len(t, result.Variants, 3)
	sizes := map[string][2]int{}
	for _, v := range result.Variants {
		sizes[v.Name] = [2]int{v.Width, v.Height}
		assert.True(t, strings.HasSuffix(v.Key, "/"+v.Name+".jpeg"))
	}
	assert.Equal(t, [2]int{160, 160}, sizes["thumbnail"])
	assert.Equal(t, [2]int{600, 400}, sizes["card"])
	assert.Equal(t, [2]int{1120, 630}, sizes["cover"])

	storage.AssertNumberOfCalls(t, "Upload", 4)
}

func TestImageService_UploadTargetImage_PNG(t *testing.T) {
	ctx := context.Background()
	storage := &MockStorageService{}
	storage.On("Upload", ctx, mock.AnythingOfType("string"), mock.Anything, "image/png", mock.AnythingOfType("int64")).
		Return("https://cdn.example.org/x.png", nil)

	result, err := NewImageService(storage).UploadTargetImage(ctx, models.CategoryPatient, 4, bytes.NewReader(createTestPNG(300, 300)), "amina.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.Original.ContentType)
	assert.True(t, strings.HasPrefix(result.Original.Key, "patients/4/"))
}

func TestImageService_UploadTargetImage_Rejects(t *testing.T) {
	ctx := context.Background()
	service := NewImageService(&MockStorageService{})

	_, err := service.UploadTargetImage(ctx, models.CategoryProgram, 1, strings.NewReader("not an image"), "x.jpg")
	assert.Error(t, err)

	big := bytes.NewReader(make([]byte, MaxImageSize+10))
	_, err = service.UploadTargetImage(ctx, models.CategoryProgram, 1, big, "x.jpg")
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImageService_DeleteUpload(t *testing.T) {
	ctx := context.Background()
	storage := &MockStorageService{}
	storage.On("Delete", ctx, mock.AnythingOfType("string")).Return(nil)

	prefix := "programs/3/2024/01/01/orphans-abcd1234"
	NewImageService(storage).DeleteUpload(ctx, &ImageUploadResult{
		Original: ImageMetadata{Key: prefix + "/original.png"},
		Variants: []ImageVariant{{Key: prefix + "/thumbnail.png"}, {Key: prefix + "/card.png"}},
	})

	storage.AssertNumberOfCalls(t, "Delete", 3)
	storage.AssertCalled(t, "Delete", ctx, prefix+"/original.png")
	storage.AssertCalled(t, "Delete", ctx, prefix+"/thumbnail.png")
}

func TestGenerateImageKey(t *testing.T) {
	key := generateImageKey(models.CategoryCampaign, 7, "../../!!!.png")
	assert.True(t, strings.HasPrefix(key, "campaigns/7/"))
	assert.Contains(t, key, "/image-")

	key = generateImageKey(models.CategoryZakat, 0, "photo.jpg")
	assert.True(t, strings.HasPrefix(key, "misc/0/"))
}

func TestImageUploadResult_CoverURL(t *testing.T) {
	r := &ImageUploadResult{Original: ImageMetadata{URL: "https://cdn/original.png"}}
	assert.Equal(t, "https://cdn/original.png", r.CoverURL())

	r.Variants = []ImageVariant{{Name: "thumbnail", URL: "https://cdn/thumb.png"}, {Name: "card", URL: "https://cdn/card.png"}}
	assert.Equal(t, "https://cdn/card.png", r.CoverURL())
}
