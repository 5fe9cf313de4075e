package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"donation-platform/internal/models"
)

// DonationConfig holds the donation service settings
type DonationConfig struct {
	MinimumAmount  float64
	Currency       string
	PublicURL      string // base URL the gateway sends donors back to
	PendingTTL     time.Duration
	DefaultPerPage int
	MaxPerPage     int
}

// targetChecker is the part of the target service donations depend on
type targetChecker interface {
	CheckTarget(ctx context.Context, target models.DonationTarget) (string, error)
	Invalidate(ctx context.Context, category models.DonationCategory)
}

// InitiateResult is returned to the donor after a donation is started
type InitiateResult struct {
	PaymentURL string           `json:"payment_url"`
	Donation   *models.Donation `json:"donation"`
}

// DonationQuery selects one page of the back-office donation listing
type DonationQuery struct {
	Status   models.DonationStatus
	Category models.DonationCategory
	TargetID *int
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

// DonationService starts donations and settles them from gateway reports
type DonationService struct {
	donations DonationStore
	targets   targetChecker
	gateway   PaymentGateway
	receipts  ReceiptSender
	config    DonationConfig
	now       func() time.Time
}

// NewDonationService creates a new donation service
func NewDonationService(donations DonationStore, targets targetChecker, gateway PaymentGateway, receipts ReceiptSender, cfg DonationConfig) *DonationService {
	if cfg.MinimumAmount <= 0 {
		cfg.MinimumAmount = models.DefaultMinimumAmount
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = 50
	}
	if cfg.MaxPerPage < cfg.DefaultPerPage {
		cfg.MaxPerPage = cfg.DefaultPerPage
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &DonationService{
		donations: donations,
		targets:   targets,
		gateway:   gateway,
		receipts:  receipts,
		config:    cfg,
		now:       time.Now,
	}
}

// Initiate validates a donation, records it as pending and opens a hosted
// payment with the gateway. Invalid input and unknown or closed targets are
// reported as models.ValidationErrors keyed by request field.
func (s *DonationService) Initiate(ctx context.Context, payload *models.DonationPayload) (*InitiateResult, error) {
	req, verrs := payload.Parse(s.config.MinimumAmount)
	if verrs != nil {
		return nil, verrs
	}

	amount := req.Amount
	if r, ok := s.gateway.(amountRounder); ok {
		amount = r.RoundAmount(amount)
		if amount < s.config.MinimumAmount {
			return nil, models.ValidationErrors{"amount": {fmt.Sprintf("must be at least %g", s.config.MinimumAmount)}}
		}
	}

	title, err := s.targets.CheckTarget(ctx, req.Target)
	if err != nil {
		field := req.Target.Category().TargetField()
		switch {
		case errors.Is(err, models.ErrTargetNotFound):
			return nil, models.ValidationErrors{field: {"does not match any " + string(req.Target.Category())}}
		case errors.Is(err, models.ErrTargetInactive):
			return nil, models.ValidationErrors{field: {"is not accepting donations"}}
		}
		return nil, fmt.Errorf("failed to check donation target: %w", err)
	}

	donation := &models.Donation{
		Reference:     models.GenerateReference(),
		Category:      req.Target.Category(),
		TargetID:      models.TargetIDPtr(req.Target),
		TargetTitle:   title,
		Amount:        amount,
		Currency:      s.config.Currency,
		DonorName:     strings.TrimSpace(req.Donor.Name),
		DonorEmail:    strings.ToLower(strings.TrimSpace(req.Donor.Email)),
		DonorPhone:    strings.TrimSpace(req.Donor.Phone),
		Message:       strings.TrimSpace(req.Message),
		PaymentMethod: req.PaymentMethod,
		Gateway:       s.gateway.Name(),
		Status:        models.DonationPending,
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	session, err := s.gateway.InitiatePayment(ctx, &PaymentRequest{
		Reference:   donation.Reference,
		Amount:      donation.Amount,
		Currency:    donation.Currency,
		DonorName:   donation.DonorName,
		DonorEmail:  donation.DonorEmail,
		DonorPhone:  donation.DonorPhone,
		Description: describeDonation(donation),
		ReturnURL:   s.config.PublicURL + "/payment/callback?reference=" + url.QueryEscape(donation.Reference),
	})
	if err != nil {
		log.Printf("Payment initiation failed for %s via %s: %v", donation.Reference, s.gateway.Name(), err)
		if _, _, merr := s.donations.MarkStatus(ctx, donation.Reference, models.DonationFailed); merr != nil {
			log.Printf("Failed to mark donation %s as failed: %v", donation.Reference, merr)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentGateway, err)
	}

	if err := s.donations.SetPaymentDetails(ctx, donation.ID, s.gateway.Name(), session.Token, session.RedirectURL); err != nil {
		return nil, err
	}
	donation.GatewayToken = session.Token
	donation.PaymentURL = session.RedirectURL

	log.Printf("Donation %s initiated: %s %.2f for %s", donation.Reference, donation.Currency, donation.Amount, donation.Category)
	return &InitiateResult{PaymentURL: session.RedirectURL, Donation: donation}, nil
}

// GetByReference returns the donation behind a public reference
func (s *DonationService) GetByReference(ctx context.Context, reference string) (*models.Donation, error) {
	reference = strings.TrimSpace(reference)
	if !models.ValidReference(reference) {
		return nil, models.ErrDonationNotFound
	}
	return s.donations.GetByReference(ctx, reference)
}

// VerifyAndSettle asks the gateway for the outcome of a payment and applies it
func (s *DonationService) VerifyAndSettle(ctx context.Context, reference string) (*models.Donation, error) {
	if !models.ValidReference(reference) {
		return nil, models.ErrDonationNotFound
	}
	v, err := s.gateway.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentGateway, err)
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	return s.ApplyVerification(ctx, v)
}

// ApplyVerification moves a pending donation to the state the gateway
// reported. Settling is idempotent: repeated reports for a donation that is
// no longer pending change nothing, and only the first paid report credits
// the target and sends the receipt.
func (s *DonationService) ApplyVerification(ctx context.Context, v *PaymentVerification) (*models.Donation, error) {
	current, err := s.donations.GetByReference(ctx, v.Reference)
	if err != nil {
		return nil, err
	}
	if current.Status.Final() {
		return current, nil
	}

	switch v.Status {
	case models.DonationPending:
		return current, nil

	case models.DonationPaid:
		if v.Amount > 0 && math.Abs(v.Amount-current.Amount) > 0.005 {
			log.Printf("Donation %s: gateway reported %.2f, expected %.2f", v.Reference, v.Amount, current.Amount)
			return nil, fmt.Errorf("donation %s: %w", v.Reference, models.ErrAmountMismatch)
		}
		paidAt := v.PaidAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		donation, changed, err := s.donations.MarkPaid(ctx, v.Reference, paidAt)
		if err != nil {
			return nil, err
		}
		donation.TargetTitle = current.TargetTitle
		if changed {
			log.Printf("Donation %s paid: %s %.2f", donation.Reference, donation.Currency, donation.Amount)
			if donation.Category.RequiresTarget() {
				s.targets.Invalidate(ctx, donation.Category)
			}
			s.sendReceipt(ctx, donation)
		}
		return donation, nil

	case models.DonationFailed, models.DonationExpired, models.DonationCancelled:
		donation, changed, err := s.donations.MarkStatus(ctx, v.Reference, v.Status)
		if err != nil {
			return nil, err
		}
		donation.TargetTitle = current.TargetTitle
		if changed {
			log.Printf("Donation %s marked %s", donation.Reference, donation.Status)
		}
		return donation, nil
	}

	return nil, fmt.Errorf("%w: gateway reported %q", models.ErrInvalidStatusChange, v.Status)
}

func (s *DonationService) sendReceipt(ctx context.Context, donation *models.Donation) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.SendDonationReceipt(ctx, donation); err != nil {
		log.Printf("Failed to send receipt for donation %s: %v", donation.Reference, err)
	}
}

// List returns one page of donations for the back office
func (s *DonationService) List(ctx context.Context, q DonationQuery) ([]*models.Donation, models.Page, error) {
	q.Page, q.PerPage = models.NormalizePaging(q.Page, q.PerPage, s.config.DefaultPerPage, s.config.MaxPerPage)
	page := models.Page{Page: q.Page, PerPage: q.PerPage}

	donations, total, err := s.donations.List(ctx, s.filters(q, q.PerPage, (q.Page-1)*q.PerPage))
	if err != nil {
		return nil, page, err
	}
	if donations == nil {
		donations = []*models.Donation{}
	}
	page.Total = total
	return donations, page, nil
}

func (s *DonationService) filters(q DonationQuery, limit, offset int) models.DonationFilters {
	return models.DonationFilters{
		Status:   q.Status,
		Category: q.Category,
		TargetID: q.TargetID,
		DateFrom: q.From,
		DateTo:   q.To,
		Limit:    limit,
		Offset:   offset,
	}
}

// exportBatch is how many donations are read per query while exporting
const exportBatch = 500

var exportHeaders = []interface{}{
	"Reference", "Created", "Status", "Category", "Target", "Amount", "Currency",
	"Donor", "Email", "Phone", "Message", "Gateway", "Paid at",
}

// ExportXLSX writes every donation matching q, ignoring paging, as an Excel
// workbook to w. It returns the number of donations written.
func (s *DonationService) ExportXLSX(ctx context.Context, q DonationQuery, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Donations"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return 0, err
	}
	f.SetColWidth(sheet, "A", lastCol, 18)

	written := 0
	for {
		batch, total, err := s.donations.List(ctx, s.filters(q, exportBatch, written))
		if err != nil {
			return written, err
		}
		for _, d := range batch {
			cell, _ := excelize.CoordinatesToCellName(1, written+2)
			row := exportRow(d)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return written, err
			}
			written++
		}
		if len(batch) == 0 || written >= total {
			break
		}
	}

	if err := f.Write(w); err != nil {
		return written, fmt.Errorf("failed to write workbook: %w", err)
	}
	return written, nil
}

func exportRow(d *models.Donation) []interface{} {
	paidAt := ""
	if d.PaidAt != nil {
		paidAt = d.PaidAt.Format("2006-01-02 15:04")
	}
	return []interface{}{
		d.Reference,
		d.CreatedAt.Format("2006-01-02 15:04"),
		string(d.Status),
		string(d.Category),
		d.TargetTitle,
		d.Amount,
		d.Currency,
		d.DonorName,
		d.DonorEmail,
		d.DonorPhone,
		d.Message,
		d.Gateway,
		paidAt,
	}
}

// ExpireStale marks pending donations older than the pending TTL as expired
func (s *DonationService) ExpireStale(ctx context.Context) (int64, error) {
	if s.config.PendingTTL <= 0 {
		return 0, nil
	}
	n, err := s.donations.ExpirePending(ctx, s.now().Add(-s.config.PendingTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Expired %d stale pending donations", n)
	}
	return n, nil
}

func describeDonation(d *models.Donation) string {
	switch {
	case d.TargetTitle != "":
		return "Donation: " + d.TargetTitle
	case d.Category == models.CategoryZakat:
		return "Zakat"
	default:
		return "General donation"
	}
}
