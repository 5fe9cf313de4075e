package models

import (
	"strings"
	"time"
)

// Patient is an individual whose treatment donors can fund directly
type Patient struct {
	ID           int          `json:"id" db:"id"`
	Slug         string       `json:"slug" db:"slug"`
	Name         string       `json:"name" db:"name"`
	Age          int          `json:"age,omitempty" db:"age"`
	Diagnosis    string       `json:"diagnosis" db:"diagnosis"`
	Hospital     string       `json:"hospital,omitempty" db:"hospital"`
	Story        string       `json:"story" db:"story"`
	GoalAmount   float64      `json:"goal_amount" db:"goal_amount"`
	RaisedAmount float64      `json:"raised_amount" db:"raised_amount"`
	Progress     float64      `json:"progress" db:"-"`
	ImageURL     string       `json:"image_url,omitempty" db:"image_url"`
	Status       TargetStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

func (p *Patient) Summarize() TargetSummary {
	return TargetSummary{
		ID:       p.ID,
		Category: CategoryPatient,
		Title:    p.Name,
		Raised:   p.RaisedAmount,
		Goal:     p.GoalAmount,
		Progress: ComputeProgress(p.RaisedAmount, p.GoalAmount),
		ImageURL: p.ImageURL,
	}
}

// AcceptsDonations reports whether p is still collecting. A patient whose
// goal is fully covered stops accepting donations.
func (p *Patient) AcceptsDonations(time.Time) bool {
	if p.Status != TargetActive {
		return false
	}
	return p.GoalAmount <= 0 || p.RaisedAmount < p.GoalAmount
}

// PatientInput is the admin form for creating or updating a patient
type PatientInput struct {
	Slug       string       `json:"slug" validate:"omitempty,max=120,slug"`
	Name       string       `json:"name" validate:"required,max=150"`
	Age        int          `json:"age" validate:"gte=0,lte=130"`
	Diagnosis  string       `json:"diagnosis" validate:"required,max=300"`
	Hospital   string       `json:"hospital" validate:"max=200"`
	Story      string       `json:"story"`
	GoalAmount float64      `json:"goal_amount" validate:"gt=0"`
	Status     TargetStatus `json:"status" validate:"required,oneof=draft active closed"`
}

func (in *PatientInput) Validate() error {
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = targetSlug(in.Name, CategoryPatient)
	}
	if errs := ValidateStruct(in); errs != nil {
		return errs
	}
	return nil
}
