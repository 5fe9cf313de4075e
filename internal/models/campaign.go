package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TargetStatus is the publication state shared by campaigns, programs and patients
type TargetStatus string

const (
	TargetDraft  TargetStatus = "draft"
	TargetActive TargetStatus = "active"
	TargetClosed TargetStatus = "closed"
)

// Valid reports whether s is a known status
func (s TargetStatus) Valid() bool {
	return s == TargetDraft || s == TargetActive || s == TargetClosed
}

// Campaign is a time-boxed fundraising drive with a goal
type Campaign struct {
	ID           int          `json:"id" db:"id"`
	Slug         string       `json:"slug" db:"slug"`
	Title        string       `json:"title" db:"title"`
	Summary      string       `json:"summary" db:"summary"`
	Description  string       `json:"description" db:"description"`
	GoalAmount   float64      `json:"goal_amount" db:"goal_amount"`
	RaisedAmount float64      `json:"raised_amount" db:"raised_amount"`
	Progress     float64      `json:"progress" db:"-"`
	ImageURL     string       `json:"image_url,omitempty" db:"image_url"`
	Status       TargetStatus `json:"status" db:"status"`
	EndsAt       *time.Time   `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Summarize returns the fields the donation drawer needs to list c
func (c *Campaign) Summarize() TargetSummary {
	return TargetSummary{
		ID:       c.ID,
		Category: CategoryCampaign,
		Title:    c.Title,
		Raised:   c.RaisedAmount,
		Goal:     c.GoalAmount,
		Progress: ComputeProgress(c.RaisedAmount, c.GoalAmount),
		ImageURL: c.ImageURL,
	}
}

// AcceptsDonations reports whether donations may currently be made to c
func (c *Campaign) AcceptsDonations(now time.Time) bool {
	if c.Status != TargetActive {
		return false
	}
	return c.EndsAt == nil || now.Before(*c.EndsAt)
}

// CampaignInput is the admin form for creating or updating a campaign
type CampaignInput struct {
	Slug        string       `json:"slug" validate:"omitempty,max=120,slug"`
	Title       string       `json:"title" validate:"required,max=200"`
	Summary     string       `json:"summary" validate:"max=500"`
	Description string       `json:"description"`
	GoalAmount  float64      `json:"goal_amount" validate:"gt=0"`
	Status      TargetStatus `json:"status" validate:"required,oneof=draft active closed"`
	EndsAt      *time.Time   `json:"ends_at,omitempty"`
}

// Validate checks the input and fills in a slug when none was given
func (in *CampaignInput) Validate() error {
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = targetSlug(in.Title, CategoryCampaign)
	}
	if errs := ValidateStruct(in); errs != nil {
		return errs
	}
	return nil
}

// TargetSummary is a category-agnostic view of a selectable target
type TargetSummary struct {
	ID       int              `json:"id"`
	Category DonationCategory `json:"category"`
	Title    string           `json:"title"`
	Raised   float64          `json:"raised_amount"`
	Goal     float64          `json:"goal_amount"`
	Progress float64          `json:"progress"`
	ImageURL string           `json:"image_url,omitempty"`
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify turns a title into a URL-safe slug
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 120 {
		s = strings.TrimRight(s[:120], "-")
	}
	return s
}

// targetSlug slugifies title. Titles with nothing Slugify keeps (Bengali or
// Arabic script, say) get a generated slug so the target stays addressable.
func targetSlug(title string, category DonationCategory) string {
	if s := Slugify(title); s != "" {
		return s
	}
	return string(category) + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}
