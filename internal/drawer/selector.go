package drawer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"donation-platform/internal/models"
)

// Selector tracks the chosen donation category and, for categories that need
// one, the chosen target. Target lists are fetched the first time their
// category is shown and kept for the selector's lifetime.
type Selector struct {
	source TargetSource

	mu       sync.Mutex
	category models.DonationCategory
	selected int
	lists    map[models.DonationCategory][]models.TargetSummary
	onChange func()

	fetches singleflight.Group
}

// NewSelector creates a selector starting on the general fund
func NewSelector(source TargetSource) *Selector {
	return &Selector{
		source:   source,
		category: models.CategoryGeneral,
		lists:    make(map[models.DonationCategory][]models.TargetSummary),
	}
}

// Category returns the active category
func (s *Selector) Category() models.DonationCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// SetCategory switches category and forgets any chosen target
func (s *Selector) SetCategory(category models.DonationCategory) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidCategory, category)
	}
	s.mu.Lock()
	s.category = category
	s.selected = 0
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}

// notify registers fn to run after every category or target change. It runs
// without the selector's lock held.
func (s *Selector) notify(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Targets returns the selectable targets of the active category, loading
// them on first use. A failed load is logged and reads as an empty list; it
// is not remembered, so the next call tries again.
func (s *Selector) Targets(ctx context.Context) []models.TargetSummary {
	s.mu.Lock()
	category := s.category
	if !category.RequiresTarget() {
		s.mu.Unlock()
		return nil
	}
	if list, ok := s.lists[category]; ok {
		s.mu.Unlock()
		return append([]models.TargetSummary(nil), list...)
	}
	s.mu.Unlock()

	v, err, _ := s.fetches.Do(string(category), func() (interface{}, error) {
		list, err := s.source.ListTargets(ctx, category)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []models.TargetSummary{}
		}
		s.mu.Lock()
		s.lists[category] = list
		s.mu.Unlock()
		return list, nil
	})
	if err != nil {
		log.Printf("[DRAWER] failed to load %s targets: %v", category, err)
		return []models.TargetSummary{}
	}
	return append([]models.TargetSummary(nil), v.([]models.TargetSummary)...)
}

// Select chooses target. It must belong to the active category and, once
// the category's list is loaded, be one of its entries.
func (s *Selector) Select(target models.DonationTarget) error {
	if err := s.choose(target); err != nil {
		return err
	}
	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}

func (s *Selector) choose(target models.DonationTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := target.TargetID()
	if !ok || target.Category() != s.category {
		return fmt.Errorf("%w: %s target chosen while %s is active", models.ErrTargetCategoryMismatch, target.Category(), s.category)
	}
	if id <= 0 {
		return fmt.Errorf("%w: invalid target id %d", models.ErrInvalidInput, id)
	}
	if list, loaded := s.lists[s.category]; loaded && !containsTarget(list, id) {
		return fmt.Errorf("%w: %s %d", models.ErrTargetNotFound, s.category, id)
	}
	s.selected = id
	return nil
}

// Selected returns the chosen target summary, if the list is loaded and a
// target is chosen
func (s *Selector) Selected() (models.TargetSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.lists[s.category] {
		if t.ID == s.selected {
			return t, true
		}
	}
	return models.TargetSummary{}, false
}

// Target returns the donation target as currently chosen. For categories
// that need a target and have none chosen it returns the variant with a zero
// id and false.
func (s *Selector) Target() (models.DonationTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := models.NewTarget(s.category, s.selected)
	if err != nil {
		return nil, false
	}
	return target, !s.category.RequiresTarget() || s.selected > 0
}

// CanSubmit is false while the active category still needs a target
func (s *Selector) CanSubmit() bool {
	_, ok := s.Target()
	return ok
}

func containsTarget(list []models.TargetSummary, id int) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
