package models

import (
	"strings"
	"time"
)

// Program is an ongoing charitable program. Programs may run without a goal,
// in which case their progress reads 0.
type Program struct {
	ID           int          `json:"id" db:"id"`
	Slug         string       `json:"slug" db:"slug"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	GoalAmount   float64      `json:"goal_amount" db:"goal_amount"`
	RaisedAmount float64      `json:"raised_amount" db:"raised_amount"`
	Progress     float64      `json:"progress" db:"-"`
	ImageURL     string       `json:"image_url,omitempty" db:"image_url"`
	Status       TargetStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

func (p *Program) Summarize() TargetSummary {
	return TargetSummary{
		ID:       p.ID,
		Category: CategoryProgram,
		Title:    p.Title,
		Raised:   p.RaisedAmount,
		Goal:     p.GoalAmount,
		Progress: ComputeProgress(p.RaisedAmount, p.GoalAmount),
		ImageURL: p.ImageURL,
	}
}

func (p *Program) AcceptsDonations(time.Time) bool {
	return p.Status == TargetActive
}

// ProgramInput is the admin form for creating or updating a program
type ProgramInput struct {
	Slug        string       `json:"slug" validate:"omitempty,max=120,slug"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description"`
	GoalAmount  float64      `json:"goal_amount" validate:"gte=0"`
	Status      TargetStatus `json:"status" validate:"required,oneof=draft active closed"`
}

func (in *ProgramInput) Validate() error {
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = targetSlug(in.Title, CategoryProgram)
	}
	if errs := ValidateStruct(in); errs != nil {
		return errs
	}
	return nil
}
