package drawer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"donation-platform/internal/apiclient"
	"donation-platform/internal/models"
)

var (
	// ErrSubmissionInFlight is returned when Submit is called while an
	// earlier submission has not finished
	ErrSubmissionInFlight = errors.New("a donation is already being submitted")
	// ErrFormClosed is returned for a submission whose drawer was closed
	// before the API answered
	ErrFormClosed = errors.New("donation form was closed")
)

// ValidationErrors holds the inline problems of each form field
type ValidationErrors = models.ValidationErrors

// State is where a form is in its submission cycle
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateRedirectPending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateRedirectPending:
		return "redirect_pending"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Fields are the values the donor types in
type Fields struct {
	Amount     float64
	DonorName  string
	DonorEmail string
	DonorPhone string
	Message    string
}

// Form is one donation form. It is safe for concurrent use and allows a
// single submission at a time.
type Form struct {
	selector  *Selector
	api       Initiator
	nav       Navigator
	minAmount float64

	mu          sync.Mutex
	fields      Fields
	state       State
	fieldErrors ValidationErrors
	banner      string
	generation  uint64
}

// NewForm creates a form submitting the target chosen in selector
func NewForm(selector *Selector, api Initiator, nav Navigator, minAmount float64) *Form {
	if minAmount <= 0 {
		minAmount = models.DefaultMinimumAmount
	}
	f := &Form{
		selector:  selector,
		api:       api,
		nav:       nav,
		minAmount: minAmount,
	}
	selector.notify(f.selectionChanged)
	return f
}

// Selector returns the form's target selector
func (f *Form) Selector() *Selector {
	return f.selector
}

// Fields returns the current field values
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Edit changes field values. Editing a failed form returns it to idle and
// dismisses the banner.
func (f *Form) Edit(change func(*Fields)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	change(&f.fields)
	f.clearFailure()
}

// selectionChanged returns a failed form to idle when the donor changes the category
// or target
func (f *Form) selectionChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearFailure()
}

// clearFailure leaves the failed state; f.mu must be held
func (f *Form) clearFailure() {
	if f.state == StateFailed {
		f.state = StateIdle
		f.banner = ""
	}
}

// State returns the current submission state
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FieldErrors returns the inline errors from the last validation
func (f *Form) FieldErrors() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrors
}

// Banner returns the message of the last failed submission, if any
func (f *Form) Banner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banner
}

// DismissBanner hides the failure message
func (f *Form) DismissBanner() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banner = ""
}

// CanSubmit reports whether the submit control is enabled
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	if state == StateSubmitting || state == StateRedirectPending {
		return false
	}
	return f.selector.CanSubmit()
}

// request assembles the donation from the form and the selector
func (f *Form) request() *models.DonationRequest {
	target, _ := f.selector.Target()
	return &models.DonationRequest{
		Amount:        f.fields.Amount,
		PaymentMethod: models.PaymentMethodOnline,
		Donor: models.DonorInfo{
			Name:  strings.TrimSpace(f.fields.DonorName),
			Email: strings.TrimSpace(f.fields.DonorEmail),
			Phone: strings.TrimSpace(f.fields.DonorPhone),
		},
		Message: strings.TrimSpace(f.fields.Message),
		Target:  target,
	}
}

// Submit validates the form and, when it is valid, starts the donation and
// redirects the donor to the payment page. Validation failures are returned
// as ValidationErrors without contacting the API. API failures leave the
// form populated with a banner message.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateSubmitting || f.state == StateRedirectPending {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}

	f.state = StateValidating
	req := f.request()
	if verrs := req.Validate(f.minAmount); verrs != nil {
		f.fieldErrors = verrs
		f.state = StateIdle
		f.mu.Unlock()
		return verrs
	}

	f.fieldErrors = nil
	f.banner = ""
	f.state = StateSubmitting
	generation := f.generation
	payload := req.Payload()
	f.mu.Unlock()

	resp, err := f.api.InitiateDonation(ctx, &payload)

	f.mu.Lock()
	if generation != f.generation {
		f.mu.Unlock()
		return ErrFormClosed
	}
	if err != nil {
		f.fail(err)
		f.mu.Unlock()
		return err
	}
	f.state = StateRedirectPending
	f.mu.Unlock()

	if err := f.nav.Redirect(resp.PaymentURL); err != nil {
		f.mu.Lock()
		if generation == f.generation {
			f.fail(err)
		}
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if generation == f.generation {
		f.fields = Fields{}
	}
	f.mu.Unlock()
	return nil
}

// fail records a failed submission; f.mu must be held
func (f *Form) fail(err error) {
	f.state = StateFailed
	f.banner = bannerMessage(err)
}

// discard drops the form's state; a submission still in flight is ignored
// when it returns
func (f *Form) discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.fields = Fields{}
	f.fieldErrors = nil
	f.banner = ""
	f.state = StateIdle
}

func bannerMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.UserMessage()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request took too long. Please try again."
	}
	return "We could not start your donation. Please check your connection and try again."
}
