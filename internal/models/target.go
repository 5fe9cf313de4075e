package models

import "fmt"

// DonationTarget is what a donation is earmarked for. Exactly one variant is
// ever held, so a donation cannot name two targets at once.
type DonationTarget interface {
	Category() DonationCategory
	// TargetID returns the id of the specific target, if the variant has one
	TargetID() (int, bool)
	isDonationTarget()
}

// GeneralTarget is the unrestricted general fund
type GeneralTarget struct{}

// ZakatTarget is the zakat fund
type ZakatTarget struct{}

// CampaignTarget earmarks a donation for a campaign
type CampaignTarget struct{ ID int }

// ProgramTarget earmarks a donation for a program
type ProgramTarget struct{ ID int }

// PatientTarget earmarks a donation for a patient
type PatientTarget struct{ ID int }

func (GeneralTarget) Category() DonationCategory  { return CategoryGeneral }
func (ZakatTarget) Category() DonationCategory    { return CategoryZakat }
func (CampaignTarget) Category() DonationCategory { return CategoryCampaign }
func (ProgramTarget) Category() DonationCategory  { return CategoryProgram }
func (PatientTarget) Category() DonationCategory  { return CategoryPatient }

func (GeneralTarget) TargetID() (int, bool)    { return 0, false }
func (ZakatTarget) TargetID() (int, bool)      { return 0, false }
func (t CampaignTarget) TargetID() (int, bool) { return t.ID, true }
func (t ProgramTarget) TargetID() (int, bool)  { return t.ID, true }
func (t PatientTarget) TargetID() (int, bool)  { return t.ID, true }

func (GeneralTarget) isDonationTarget()  {}
func (ZakatTarget) isDonationTarget()    {}
func (CampaignTarget) isDonationTarget() {}
func (ProgramTarget) isDonationTarget()  {}
func (PatientTarget) isDonationTarget()  {}

// NewTarget builds the variant for category. id is ignored for categories
// without a specific target.
func NewTarget(category DonationCategory, id int) (DonationTarget, error) {
	switch category {
	case CategoryGeneral:
		return GeneralTarget{}, nil
	case CategoryZakat:
		return ZakatTarget{}, nil
	case CategoryCampaign:
		return CampaignTarget{ID: id}, nil
	case CategoryProgram:
		return ProgramTarget{ID: id}, nil
	case CategoryPatient:
		return PatientTarget{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
}

// TargetIDPtr returns the target id as a nullable column value
func TargetIDPtr(t DonationTarget) *int {
	if t == nil {
		return nil
	}
	if id, ok := t.TargetID(); ok {
		return &id
	}
	return nil
}
