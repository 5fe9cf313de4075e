package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
)

// TargetQuery selects one page of a target listing
type TargetQuery struct {
	Search  string
	Status  models.TargetStatus // empty lists every status
	Page    int
	PerPage int
}

// TargetService serves campaigns, programs and patients to the public API
// and the back office
type TargetService struct {
	campaigns      CampaignStore
	programs       ProgramStore
	patients       PatientStore
	images         ImageUploader
	cache          TargetCache
	defaultPerPage int
	maxPerPage     int
	now            func() time.Time
}

// NewTargetService creates a new target service
func NewTargetService(campaigns CampaignStore, programs ProgramStore, patients PatientStore, images ImageUploader, cache TargetCache, defaultPerPage, maxPerPage int) *TargetService {
	if cache == nil {
		cache = NoopTargetCache{}
	}
	if defaultPerPage <= 0 {
		defaultPerPage = 20
	}
	if maxPerPage < defaultPerPage {
		maxPerPage = defaultPerPage
	}
	return &TargetService{
		campaigns:      campaigns,
		programs:       programs,
		patients:       patients,
		images:         images,
		cache:          cache,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
		now:            time.Now,
	}
}

type cachedPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// listTargets loads one page, going through the cache for public listings
func listTargets[T any](ctx context.Context, s *TargetService, category models.DonationCategory, q TargetQuery, load func(context.Context, repositories.TargetFilter) ([]T, int, error)) ([]T, models.Page, error) {
	q.Page, q.PerPage = models.NormalizePaging(q.Page, q.PerPage, s.defaultPerPage, s.maxPerPage)
	q.Search = strings.TrimSpace(q.Search)
	page := models.Page{Page: q.Page, PerPage: q.PerPage}

	cacheable := q.Status == models.TargetActive
	key := targetCacheKey(category, q)
	if cacheable {
		var hit cachedPage[T]
		found, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			log.Printf("Target cache read failed for %s: %v", key, err)
		} else if found {
			page.Total = hit.Total
			return hit.Items, page, nil
		}
	}

	items, total, err := load(ctx, repositories.TargetFilter{
		Query:  q.Search,
		Status: q.Status,
		Limit:  q.PerPage,
		Offset: (q.Page - 1) * q.PerPage,
	})
	if err != nil {
		return nil, page, fmt.Errorf("failed to list %ss: %w", category, err)
	}
	if items == nil {
		items = []T{}
	}
	page.Total = total

	if cacheable {
		if err := s.cache.Set(ctx, key, cachedPage[T]{Items: items, Total: total}); err != nil {
			log.Printf("Target cache write failed for %s: %v", key, err)
		}
	}
	return items, page, nil
}

// ListCampaigns returns one page of campaigns
func (s *TargetService) ListCampaigns(ctx context.Context, q TargetQuery) ([]*models.Campaign, models.Page, error) {
	return listTargets(ctx, s, models.CategoryCampaign, q, s.campaigns.List)
}

// ListPrograms returns one page of programs
func (s *TargetService) ListPrograms(ctx context.Context, q TargetQuery) ([]*models.Program, models.Page, error) {
	return listTargets(ctx, s, models.CategoryProgram, q, s.programs.List)
}

// ListPatients returns one page of patients
func (s *TargetService) ListPatients(ctx context.Context, q TargetQuery) ([]*models.Patient, models.Page, error) {
	return listTargets(ctx, s, models.CategoryPatient, q, s.patients.List)
}

// GetCampaign returns a published campaign by slug
func (s *TargetService) GetCampaign(ctx context.Context, slug string) (*models.Campaign, error) {
	c, err := s.campaigns.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.Status == models.TargetDraft {
		return nil, models.ErrTargetNotFound
	}
	return c, nil
}

// GetProgram returns a published program by slug
func (s *TargetService) GetProgram(ctx context.Context, slug string) (*models.Program, error) {
	p, err := s.programs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status == models.TargetDraft {
		return nil, models.ErrTargetNotFound
	}
	return p, nil
}

// GetPatient returns a published patient by slug
func (s *TargetService) GetPatient(ctx context.Context, slug string) (*models.Patient, error) {
	p, err := s.patients.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status == models.TargetDraft {
		return nil, models.ErrTargetNotFound
	}
	return p, nil
}

// CreateCampaign validates and stores a new campaign
func (s *TargetService) CreateCampaign(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := s.campaigns.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryCampaign)
	return c, nil
}

// UpdateCampaign validates and applies changes to a campaign
func (s *TargetService) UpdateCampaign(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := s.campaigns.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryCampaign)
	return c, nil
}

// CreateProgram validates and stores a new program
func (s *TargetService) CreateProgram(ctx context.Context, in *models.ProgramInput) (*models.Program, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.programs.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryProgram)
	return p, nil
}

// UpdateProgram validates and applies changes to a program
func (s *TargetService) UpdateProgram(ctx context.Context, id int, in *models.ProgramInput) (*models.Program, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.programs.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryProgram)
	return p, nil
}

// CreatePatient validates and stores a new patient
func (s *TargetService) CreatePatient(ctx context.Context, in *models.PatientInput) (*models.Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.patients.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryPatient)
	return p, nil
}

// UpdatePatient validates and applies changes to a patient
func (s *TargetService) UpdatePatient(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.patients.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, models.CategoryPatient)
	return p, nil
}

// DeleteTarget removes a campaign, program or patient
func (s *TargetService) DeleteTarget(ctx context.Context, category models.DonationCategory, id int) error {
	var err error
	switch category {
	case models.CategoryCampaign:
		err = s.campaigns.Delete(ctx, id)
	case models.CategoryProgram:
		err = s.programs.Delete(ctx, id)
	case models.CategoryPatient:
		err = s.patients.Delete(ctx, id)
	default:
		return fmt.Errorf("%w: %q has no targets", models.ErrInvalidCategory, category)
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, category)
	return nil
}

// SetTargetImage resizes and stores a cover image and points the target at
// it. It returns the URL now shown for the target.
func (s *TargetService) SetTargetImage(ctx context.Context, category models.DonationCategory, id int, reader io.Reader, filename string) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image uploads are not configured")
	}

	var setImage func(context.Context, int, string) error
	var err error
	switch category {
	case models.CategoryCampaign:
		_, err = s.campaigns.GetByID(ctx, id)
		setImage = s.campaigns.UpdateImage
	case models.CategoryProgram:
		_, err = s.programs.GetByID(ctx, id)
		setImage = s.programs.UpdateImage
	case models.CategoryPatient:
		_, err = s.patients.GetByID(ctx, id)
		setImage = s.patients.UpdateImage
	default:
		return "", fmt.Errorf("%w: %q has no targets", models.ErrInvalidCategory, category)
	}
	if err != nil {
		return "", err
	}

	result, err := s.images.UploadTargetImage(ctx, category, id, reader, filename)
	if err != nil {
		return "", err
	}

	url := result.CoverURL()
	if err := setImage(ctx, id, url); err != nil {
		s.images.DeleteUpload(ctx, result)
		return "", err
	}
	s.invalidate(ctx, category)
	return url, nil
}

// CheckTarget confirms a donation target exists and is collecting. It
// returns the target's display title, empty for the general and zakat funds.
func (s *TargetService) CheckTarget(ctx context.Context, target models.DonationTarget) (string, error) {
	id, ok := target.TargetID()
	if !ok {
		return "", nil
	}

	now := s.now()
	var title string
	var accepts bool
	switch target.(type) {
	case models.CampaignTarget:
		c, err := s.campaigns.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		title, accepts = c.Title, c.AcceptsDonations(now)
	case models.ProgramTarget:
		p, err := s.programs.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		title, accepts = p.Title, p.AcceptsDonations(now)
	case models.PatientTarget:
		p, err := s.patients.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		title, accepts = p.Name, p.AcceptsDonations(now)
	}

	if !accepts {
		return title, models.ErrTargetInactive
	}
	return title, nil
}

// Invalidate drops cached listings for category, used after donations
// change a target's raised amount
func (s *TargetService) Invalidate(ctx context.Context, category models.DonationCategory) {
	s.invalidate(ctx, category)
}

func (s *TargetService) invalidate(ctx context.Context, category models.DonationCategory) {
	if err := s.cache.Invalidate(ctx, category); err != nil {
		log.Printf("Target cache invalidation failed for %s: %v", category, err)
	}
}
