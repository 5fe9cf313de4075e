// Package drawer implements the donation drawer: choosing what to donate to,
// filling in the donation form and handing the donor to the payment page.
package drawer

import (
	"context"
	"fmt"

	"donation-platform/internal/apiclient"
	"donation-platform/internal/models"
)

// TargetSource loads the selectable targets of a category
type TargetSource interface {
	ListTargets(ctx context.Context, category models.DonationCategory) ([]models.TargetSummary, error)
}

// Initiator starts a donation with the API
type Initiator interface {
	InitiateDonation(ctx context.Context, payload *models.DonationPayload) (*apiclient.InitiateResponse, error)
}

// Navigator sends the donor to the payment page. In a browser this is a
// full page redirect.
type Navigator interface {
	Redirect(paymentURL string) error
}

const defaultPatientsPerPage = 100

// APISource lists targets through the donation API
type APISource struct {
	Client          *apiclient.Client
	PatientsPerPage int
}

// ListTargets implements TargetSource
func (s APISource) ListTargets(ctx context.Context, category models.DonationCategory) ([]models.TargetSummary, error) {
	switch category {
	case models.CategoryCampaign:
		items, err := s.Client.ListCampaigns(ctx)
		return summarize(items), err
	case models.CategoryProgram:
		items, err := s.Client.ListPrograms(ctx)
		return summarize(items), err
	case models.CategoryPatient:
		perPage := s.PatientsPerPage
		if perPage <= 0 {
			perPage = defaultPatientsPerPage
		}
		items, err := s.Client.ListPatients(ctx, perPage)
		return summarize(items), err
	}
	return nil, fmt.Errorf("%w: %s has no targets", models.ErrInvalidCategory, category)
}

func summarize[T interface{ Summarize() models.TargetSummary }](items []T) []models.TargetSummary {
	out := make([]models.TargetSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Summarize())
	}
	return out
}
