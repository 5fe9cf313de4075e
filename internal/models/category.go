package models

import (
	"fmt"
	"strings"
)

// DonationCategory is the kind of fund a donation is earmarked for
type DonationCategory string

const (
	CategoryGeneral  DonationCategory = "general"
	CategoryZakat    DonationCategory = "zakat"
	CategoryCampaign DonationCategory = "campaign"
	CategoryProgram  DonationCategory = "program"
	CategoryPatient  DonationCategory = "patient"
)

// AllCategories lists every category in display order
var AllCategories = []DonationCategory{
	CategoryGeneral,
	CategoryZakat,
	CategoryCampaign,
	CategoryProgram,
	CategoryPatient,
}

// ParseCategory parses a category name, ignoring case and surrounding space
func ParseCategory(s string) (DonationCategory, error) {
	c := DonationCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether c is a known category
func (c DonationCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryZakat, CategoryCampaign, CategoryProgram, CategoryPatient:
		return true
	}
	return false
}

// RequiresTarget reports whether donations in c must name a specific target
func (c DonationCategory) RequiresTarget() bool {
	switch c {
	case CategoryCampaign, CategoryProgram, CategoryPatient:
		return true
	}
	return false
}

// TargetField returns the request field carrying the target id for c,
// or "" for categories without a target.
func (c DonationCategory) TargetField() string {
	if !c.RequiresTarget() {
		return ""
	}
	return string(c) + "_id"
}

// TargetTable returns the table holding targets of category c
func (c DonationCategory) TargetTable() string {
	switch c {
	case CategoryCampaign:
		return "campaigns"
	case CategoryProgram:
		return "programs"
	case CategoryPatient:
		return "patients"
	}
	return ""
}

func (c DonationCategory) String() string {
	return string(c)
}
