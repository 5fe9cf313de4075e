package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donation-platform/internal/models"
	"donation-platform/internal/services"
)

// PaystackWebhookVerifier checks the signature Paystack puts on webhooks
type PaystackWebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// MidtransSignatureVerifier checks the signature on Midtrans notifications
type MidtransSignatureVerifier interface {
	VerifySignature(n *services.MidtransNotification) bool
}

// DonationHandler handles donation initiation and the gateway round trip
type DonationHandler struct {
	donations services.DonationServiceInterface
	paystack  PaystackWebhookVerifier
	midtrans  MidtransSignatureVerifier
}

// NewDonationHandler creates a new donation handler. paystack and midtrans
// may be nil when that gateway is not in use.
func NewDonationHandler(donations services.DonationServiceInterface, paystack PaystackWebhookVerifier, midtrans MidtransSignatureVerifier) *DonationHandler {
	return &DonationHandler{
		donations: donations,
		paystack:  paystack,
		midtrans:  midtrans,
	}
}

// DonationSummary is what the success page shows about a donation
type DonationSummary struct {
	Reference   string                  `json:"reference"`
	Status      models.DonationStatus   `json:"status"`
	Category    models.DonationCategory `json:"category"`
	TargetID    *int                    `json:"target_id,omitempty"`
	TargetTitle string                  `json:"target_title,omitempty"`
	Amount      float64                 `json:"amount"`
	Currency    string                  `json:"currency"`
	DonorName   string                  `json:"donor_name"`
	PaidAt      *time.Time              `json:"paid_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func summarizeDonation(d *models.Donation) DonationSummary {
	return DonationSummary{
		Reference:   d.Reference,
		Status:      d.Status,
		Category:    d.Category,
		TargetID:    d.TargetID,
		TargetTitle: d.TargetTitle,
		Amount:      d.Amount,
		Currency:    d.Currency,
		DonorName:   d.DonorName,
		PaidAt:      d.PaidAt,
		CreatedAt:   d.CreatedAt,
	}
}

// Initiate handles POST /donations/initiate
func (h *DonationHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var payload models.DonationPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.donations.Initiate(r.Context(), &payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Success handles GET /donations/success?trxId=
func (h *DonationHandler) Success(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("trxId")
	if reference == "" {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: "trxId is required",
			Errors:  map[string][]string{"trxId": {"is required"}},
		})
		return
	}

	d, err := h.donations.GetByReference(r.Context(), reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeDonation(d))
}

// callbackReference finds the donation reference in a gateway redirect.
// Paystack sends reference and trxref, Midtrans sends order_id.
func callbackReference(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"reference", "trxref", "order_id"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// PaymentCallback handles GET /payment/callback, where the gateway sends the
// donor back. The payment is verified and settled before redirecting to the
// success page, which shows whatever state the donation ended in.
func (h *DonationHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	reference := callbackReference(r)
	if reference == "" {
		log.Printf("Payment callback: missing reference")
		writeMessage(w, http.StatusBadRequest, "Missing payment reference")
		return
	}

	d, err := h.donations.VerifyAndSettle(r.Context(), reference)
	switch {
	case errors.Is(err, models.ErrDonationNotFound):
		writeError(w, r, err)
		return
	case err != nil:
		log.Printf("Payment callback: settling %s failed: %v", reference, err)
	default:
		log.Printf("Payment callback: %s is %s", reference, d.Status)
	}

	http.Redirect(w, r, "/donation/success?trxId="+url.QueryEscape(reference), http.StatusSeeOther)
}

// PaystackWebhook handles POST /payment/paystack/webhook
func (h *DonationHandler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	if h.paystack == nil {
		writeMessage(w, http.StatusNotFound, "Paystack is not enabled")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unreadable body")
		return
	}
	if !h.paystack.VerifyWebhookSignature(body, r.Header.Get("X-Paystack-Signature")) {
		log.Printf("Paystack webhook: invalid signature from %s", r.RemoteAddr)
		writeMessage(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event services.PaystackWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed event")
		return
	}

	v, ok := event.Verification()
	if !ok {
		// Acknowledge events that do not concern donations
		w.WriteHeader(http.StatusOK)
		return
	}
	h.settle(w, r, "Paystack webhook", v)
}

// MidtransNotification handles POST /payment/midtrans/notification
func (h *DonationHandler) MidtransNotification(w http.ResponseWriter, r *http.Request) {
	if h.midtrans == nil {
		writeMessage(w, http.StatusNotFound, "Midtrans is not enabled")
		return
	}

	var n services.MidtransNotification
	if err := decodeJSON(w, r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	if !h.midtrans.VerifySignature(&n) {
		log.Printf("Midtrans notification: invalid signature for %s", n.OrderID)
		writeMessage(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	h.settle(w, r, "Midtrans notification", n.Verification())
}

// settle applies a gateway report. Reports the gateway should not retry are
// acknowledged with 200 even when they change nothing.
func (h *DonationHandler) settle(w http.ResponseWriter, r *http.Request, source string, v *services.PaymentVerification) {
	d, err := h.donations.ApplyVerification(r.Context(), v)
	switch {
	case err == nil:
		log.Printf("%s: %s is %s", source, v.Reference, d.Status)
	case errors.Is(err, models.ErrDonationNotFound),
		errors.Is(err, models.ErrAmountMismatch),
		errors.Is(err, models.ErrInvalidStatusChange):
		log.Printf("%s: ignoring report for %s: %v", source, v.Reference, err)
	default:
		log.Printf("%s: failed to settle %s: %v", source, v.Reference, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to process notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
