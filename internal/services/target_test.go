package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
)

type MockCampaignStore struct {
	mock.Mock
}

func (m *MockCampaignStore) List(ctx context.Context, filter repositories.TargetFilter) ([]*models.Campaign, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Campaign), args.Int(1), args.Error(2)
}

func (m *MockCampaignStore) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) GetBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) Create(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) Update(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCampaignStore) UpdateImage(ctx context.Context, id int, imageURL string) error {
	return m.Called(ctx, id, imageURL).Error(0)
}

type MockPatientStore struct {
	mock.Mock
}

func (m *MockPatientStore) List(ctx context.Context, filter repositories.TargetFilter) ([]*models.Patient, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Patient), args.Int(1), args.Error(2)
}

func (m *MockPatientStore) GetByID(ctx context.Context, id int) (*models.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientStore) GetBySlug(ctx context.Context, slug string) (*models.Patient, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientStore) Create(ctx context.Context, in *models.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientStore) Update(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientStore) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPatientStore) UpdateImage(ctx context.Context, id int, imageURL string) error {
	return m.Called(ctx, id, imageURL).Error(0)
}

// memoryCache is a TargetCache backed by a map, storing values as-is
type memoryCache struct {
	entries     map[string]interface{}
	invalidated []models.DonationCategory
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *cachedPage[*models.Campaign]:
		*d = v.(cachedPage[*models.Campaign])
	case *cachedPage[*models.Patient]:
		*d = v.(cachedPage[*models.Patient])
	}
	return true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, category models.DonationCategory) error {
	c.invalidated = append(c.invalidated, category)
	for k := range c.entries {
		if strings.HasPrefix(k, string(category)+":") {
			delete(c.entries, k)
		}
	}
	return nil
}

type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) UploadTargetImage(ctx context.Context, category models.DonationCategory, targetID int, reader io.Reader, filename string) (*ImageUploadResult, error) {
	args := m.Called(ctx, category, targetID, reader, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImageUploadResult), args.Error(1)
}

func (m *MockImageUploader) DeleteUpload(ctx context.Context, result *ImageUploadResult) {
	m.Called(ctx, result)
}

func TestTargetService_ListCampaignsUsesCacheForActiveListings(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	cache := newMemoryCache()
	svc := NewTargetService(campaigns, nil, nil, nil, cache, 20, 100)

	filter := repositories.TargetFilter{Status: models.TargetActive, Limit: 20, Offset: 0}
	campaigns.On("List", ctx, filter).Return([]*models.Campaign{{ID: 1, Title: "Clean Water"}}, 1, nil).Once()

	q := TargetQuery{Status: models.TargetActive}
	first, page, err := svc.ListCampaigns(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, models.Page{Page: 1, PerPage: 20, Total: 1}, page)

	second, page, err := svc.ListCampaigns(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, page.Total)

	campaigns.AssertNumberOfCalls(t, "List", 1)
}

func TestTargetService_ListAllStatusesBypassesCache(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	cache := newMemoryCache()
	svc := NewTargetService(campaigns, nil, nil, nil, cache, 20, 100)

	filter := repositories.TargetFilter{Query: "water", Limit: 100, Offset: 100}
	campaigns.On("List", ctx, filter).Return(nil, 0, nil)

	items, page, err := svc.ListCampaigns(ctx, TargetQuery{Search: " water ", Page: 2, PerPage: 500})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 100, page.PerPage)
	assert.Empty(t, cache.entries)
}

func TestTargetService_GetHidesDrafts(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	svc := NewTargetService(campaigns, nil, nil, nil, nil, 20, 100)

	campaigns.On("GetBySlug", ctx, "draft-one").Return(&models.Campaign{Status: models.TargetDraft}, nil)
	campaigns.On("GetBySlug", ctx, "closed-one").Return(&models.Campaign{Status: models.TargetClosed}, nil)

	_, err := svc.GetCampaign(ctx, "draft-one")
	assert.ErrorIs(t, err, models.ErrTargetNotFound)

	c, err := svc.GetCampaign(ctx, "closed-one")
	require.NoError(t, err)
	assert.Equal(t, models.TargetClosed, c.Status)
}

func TestTargetService_CreateCampaignValidatesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	cache := newMemoryCache()
	cache.entries["campaign:active::1:20"] = cachedPage[*models.Campaign]{}
	cache.entries["patient:active::1:20"] = cachedPage[*models.Patient]{}
	svc := NewTargetService(campaigns, nil, nil, nil, cache, 20, 100)

	_, err := svc.CreateCampaign(ctx, &models.CampaignInput{Title: ""})
	var verrs models.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	campaigns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	in := &models.CampaignInput{Title: "Winter Blankets", GoalAmount: 2000, Status: models.TargetActive}
	campaigns.On("Create", ctx, in).Return(&models.Campaign{ID: 5, Slug: "winter-blankets"}, nil)

	c, err := svc.CreateCampaign(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 5, c.ID)
	assert.Equal(t, "winter-blankets", in.Slug)

	assert.Equal(t, []models.DonationCategory{models.CategoryCampaign}, cache.invalidated)
	assert.NotContains(t, cache.entries, "campaign:active::1:20")
	assert.Contains(t, cache.entries, "patient:active::1:20")
}

func TestTargetService_DeleteTarget(t *testing.T) {
	ctx := context.Background()
	patients := &MockPatientStore{}
	svc := NewTargetService(nil, nil, patients, nil, nil, 20, 100)

	patients.On("Delete", ctx, 3).Return(nil)
	require.NoError(t, svc.DeleteTarget(ctx, models.CategoryPatient, 3))

	assert.ErrorIs(t, svc.DeleteTarget(ctx, models.CategoryZakat, 3), models.ErrInvalidCategory)
}

func TestTargetService_SetTargetImage(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	images := &MockImageUploader{}
	svc := NewTargetService(campaigns, nil, nil, images, nil, 20, 100)

	reader := strings.NewReader("img")
	campaigns.On("GetByID", ctx, 9).Return(&models.Campaign{ID: 9}, nil)
	images.On("UploadTargetImage", ctx, models.CategoryCampaign, 9, reader, "water.png").Return(&ImageUploadResult{
		Original: ImageMetadata{URL: "https://cdn/original.png"},
		Variants: []ImageVariant{{Name: "card", URL: "https://cdn/card.png"}},
	}, nil)
	campaigns.On("UpdateImage", ctx, 9, "https://cdn/card.png").Return(nil)

	url, err := svc.SetTargetImage(ctx, models.CategoryCampaign, 9, reader, "water.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/card.png", url)

	campaigns.On("GetByID", ctx, 10).Return(nil, models.ErrTargetNotFound)
	_, err = svc.SetTargetImage(ctx, models.CategoryCampaign, 10, reader, "water.png")
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
	images.AssertNumberOfCalls(t, "UploadTargetImage", 1)
	images.AssertNotCalled(t, "DeleteUpload", mock.Anything, mock.Anything)
}

func TestTargetService_SetTargetImageRemovesUploadOnFailure(t *testing.T) {
	ctx := context.Background()
	patients := &MockPatientStore{}
	images := &MockImageUploader{}
	svc := NewTargetService(nil, nil, patients, images, nil, 20, 100)

	reader := strings.NewReader("img")
	uploaded := &ImageUploadResult{Original: ImageMetadata{Key: "patients/4/original.png", URL: "https://cdn/original.png"}}
	patients.On("GetByID", ctx, 4).Return(&models.Patient{ID: 4}, nil)
	images.On("UploadTargetImage", ctx, models.CategoryPatient, 4, reader, "yusuf.png").Return(uploaded, nil)
	images.On("DeleteUpload", ctx, uploaded).Return()
	patients.On("UpdateImage", ctx, 4, "https://cdn/original.png").Return(errors.New("connection reset"))

	_, err := svc.SetTargetImage(ctx, models.CategoryPatient, 4, reader, "yusuf.png")
	assert.Error(t, err)
	images.AssertCalled(t, "DeleteUpload", ctx, uploaded)
}

func TestTargetService_CheckTarget(t *testing.T) {
	ctx := context.Background()
	campaigns := &MockCampaignStore{}
	patients := &MockPatientStore{}
	svc := NewTargetService(campaigns, nil, patients, nil, nil, 20, 100)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	title, err := svc.CheckTarget(ctx, models.ZakatTarget{})
	require.NoError(t, err)
	assert.Empty(t, title)

	ended := now.Add(-time.Hour)
	campaigns.On("GetByID", ctx, 1).Return(&models.Campaign{Title: "Eid Gifts", Status: models.TargetActive, EndsAt: &ended}, nil)
	_, err = svc.CheckTarget(ctx, models.CampaignTarget{ID: 1})
	assert.ErrorIs(t, err, models.ErrTargetInactive)

	patients.On("GetByID", ctx, 2).Return(&models.Patient{Name: "Amina", Status: models.TargetActive, GoalAmount: 1000, RaisedAmount: 10}, nil)
	title, err = svc.CheckTarget(ctx, models.PatientTarget{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Amina", title)

	patients.On("GetByID", ctx, 3).Return(nil, models.ErrTargetNotFound)
	_, err = svc.CheckTarget(ctx, models.PatientTarget{ID: 3})
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
}
