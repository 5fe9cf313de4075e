package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

// DonationStatus represents the payment state of a donation
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationPaid      DonationStatus = "paid"
	DonationFailed    DonationStatus = "failed"
	DonationExpired   DonationStatus = "expired"
	DonationCancelled DonationStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationPending, DonationPaid, DonationFailed, DonationExpired, DonationCancelled:
		return true
	}
	return false
}

// Final reports whether no further transition is allowed from s
func (s DonationStatus) Final() bool {
	return s != DonationPending
}

// PaymentMethod is how the donor pays. Only online checkout through the
// configured gateway is offered.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
)

// DefaultMinimumAmount is the smallest donation accepted unless configured
const DefaultMinimumAmount = 10.0

// Donation represents a persisted donation
type Donation struct {
	ID            int              `json:"id" db:"id"`
	Reference     string           `json:"reference" db:"reference"`
	Category      DonationCategory `json:"category" db:"category"`
	TargetID      *int             `json:"target_id,omitempty" db:"target_id"`
	TargetTitle   string           `json:"target_title,omitempty" db:"-"`
	Amount        float64          `json:"amount" db:"amount"`
	Currency      string           `json:"currency" db:"currency"`
	DonorName     string           `json:"donor_name" db:"donor_name"`
	DonorEmail    string           `json:"donor_email" db:"donor_email"`
	DonorPhone    string           `json:"donor_phone,omitempty" db:"donor_phone"`
	Message       string           `json:"message,omitempty" db:"message"`
	PaymentMethod PaymentMethod    `json:"payment_method" db:"payment_method"`
	Gateway       string           `json:"gateway" db:"gateway"`
	GatewayToken  string           `json:"-" db:"gateway_token"`
	PaymentURL    string           `json:"payment_url,omitempty" db:"payment_url"`
	Status        DonationStatus   `json:"status" db:"status"`
	PaidAt        *time.Time       `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Target rebuilds the donation target from the stored category and id
func (d *Donation) Target() (DonationTarget, error) {
	id := 0
	if d.TargetID != nil {
		id = *d.TargetID
	}
	return NewTarget(d.Category, id)
}

// DonorInfo holds the donor's contact details
type DonorInfo struct {
	Name  string
	Email string
	Phone string
}

// DonationRequest is a validated request to start a donation
type DonationRequest struct {
	Amount        float64
	PaymentMethod PaymentMethod
	Donor         DonorInfo
	Message       string
	Target        DonationTarget
}

// DonationPayload is the wire form of a DonationRequest as posted to
// /donations/initiate
type DonationPayload struct {
	Amount        float64          `json:"amount" validate:"gt=0"`
	PaymentMethod PaymentMethod    `json:"payment_method" validate:"required,oneof=online"`
	DonorName     string           `json:"donor_name" validate:"required,max=100"`
	DonorEmail    string           `json:"donor_email" validate:"required,email,max=255"`
	DonorPhone    string           `json:"donor_phone,omitempty" validate:"omitempty,max=30"`
	Message       string           `json:"message,omitempty" validate:"max=1000"`
	Category      DonationCategory `json:"category" validate:"required,oneof=general zakat campaign program patient"`
	CampaignID    *int             `json:"campaign_id,omitempty"`
	ProgramID     *int             `json:"program_id,omitempty"`
	PatientID     *int             `json:"patient_id,omitempty"`
}

// Payload converts the request to its wire form. Exactly one of the target
// id fields is set, and only for categories that carry a target.
func (r *DonationRequest) Payload() DonationPayload {
	p := DonationPayload{
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		DonorName:     r.Donor.Name,
		DonorEmail:    r.Donor.Email,
		DonorPhone:    r.Donor.Phone,
		Message:       r.Message,
	}
	if r.Target == nil {
		return p
	}
	p.Category = r.Target.Category()
	switch t := r.Target.(type) {
	case CampaignTarget:
		id := t.ID
		p.CampaignID = &id
	case ProgramTarget:
		id := t.ID
		p.ProgramID = &id
	case PatientTarget:
		id := t.ID
		p.PatientID = &id
	}
	return p
}

// Validate checks the request against the donation rules. minAmount of zero
// or less falls back to DefaultMinimumAmount.
func (r *DonationRequest) Validate(minAmount float64) ValidationErrors {
	p := r.Payload()
	errs := ValidateStruct(&p)
	if errs == nil {
		errs = ValidationErrors{}
	}

	if minAmount <= 0 {
		minAmount = DefaultMinimumAmount
	}
	if r.Amount < minAmount && !errs.Has("amount") {
		errs.Add("amount", fmt.Sprintf("must be at least %s", formatAmount(minAmount)))
	}

	if r.Target == nil {
		if !errs.Has("category") {
			errs.Add("category", "is required")
		}
	} else if id, ok := r.Target.TargetID(); ok && id <= 0 {
		errs.Add(r.Target.Category().TargetField(), "is required")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Parse turns a payload into a DonationRequest, rejecting target ids that do
// not belong to the payload's category.
func (p *DonationPayload) Parse(minAmount float64) (*DonationRequest, ValidationErrors) {
	errs := ValidationErrors{}

	ids := map[string]*int{
		"campaign_id": p.CampaignID,
		"program_id":  p.ProgramID,
		"patient_id":  p.PatientID,
	}
	want := p.Category.TargetField()
	for field, id := range ids {
		if id != nil && field != want {
			errs.Add(field, fmt.Sprintf("must be empty for category %s", p.Category))
		}
	}

	req := &DonationRequest{
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Donor: DonorInfo{
			Name:  p.DonorName,
			Email: p.DonorEmail,
			Phone: p.DonorPhone,
		},
		Message: p.Message,
	}

	if p.Category.Valid() {
		id := 0
		if ptr := ids[want]; ptr != nil {
			id = *ptr
		}
		req.Target, _ = NewTarget(p.Category, id)
	}

	for field, msgs := range req.Validate(minAmount) {
		for _, m := range msgs {
			errs.Add(field, m)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}

// DonationFilters narrows donation listings
type DonationFilters struct {
	Status   DonationStatus
	Category DonationCategory
	TargetID *int
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

var referenceRegex = regexp.MustCompile(`^DON-\d{8}-[0-9A-Z]{6}$`)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateReference returns a new public donation reference,
// formatted DON-YYYYMMDD-XXXXXX
func GenerateReference() string {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(time.Now().UnixNano() % int64(len(referenceAlphabet)))
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("DON-%s-%s", time.Now().Format("20060102"), suffix)
}

// ValidReference reports whether ref looks like a donation reference
func ValidReference(ref string) bool {
	return referenceRegex.MatchString(ref)
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
