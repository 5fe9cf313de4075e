package drawer

import (
	"sync"

	"donation-platform/internal/models"
)

// Prefill preselects parts of the form when the drawer opens, for example
// from a patient's "donate" button
type Prefill struct {
	Category models.DonationCategory
	TargetID int
	Amount   float64
}

// Drawer owns the open donation form. Each Open starts from a fresh selector
// and form; Close throws them away.
type Drawer struct {
	source    TargetSource
	api       Initiator
	nav       Navigator
	minAmount float64

	mu   sync.Mutex
	form *Form
}

// New creates a closed drawer
func New(source TargetSource, api Initiator, nav Navigator, minAmount float64) *Drawer {
	return &Drawer{
		source:    source,
		api:       api,
		nav:       nav,
		minAmount: minAmount,
	}
}

// Open opens the drawer with a new form, replacing any form already open
func (d *Drawer) Open(p Prefill) (*Form, error) {
	selector := NewSelector(d.source)
	if p.Category != "" {
		if err := selector.SetCategory(p.Category); err != nil {
			return nil, err
		}
	}
	if p.TargetID > 0 {
		target, err := models.NewTarget(selector.Category(), p.TargetID)
		if err != nil {
			return nil, err
		}
		if err := selector.Select(target); err != nil {
			return nil, err
		}
	}

	form := NewForm(selector, d.api, d.nav, d.minAmount)
	if p.Amount > 0 {
		form.Edit(func(f *Fields) { f.Amount = p.Amount })
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.form != nil {
		d.form.discard()
	}
	d.form = form
	return form, nil
}

// Close closes the drawer. A submission still running is ignored when it
// completes.
func (d *Drawer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.form != nil {
		d.form.discard()
		d.form = nil
	}
}

// IsOpen reports whether a form is open
func (d *Drawer) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form != nil
}

// Form returns the open form, or nil when the drawer is closed
func (d *Drawer) Form() *Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form
}
