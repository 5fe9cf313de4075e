package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
	"donation-platform/internal/utils"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackService handles payments via the Paystack API
type PaystackService struct {
	config  config.PaystackConfig
	client  *http.Client
	baseURL string
}

// NewPaystackService creates a new Paystack payment service
func NewPaystackService(cfg config.PaystackConfig) *PaystackService {
	return &PaystackService{
		config:  cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: paystackBaseURL,
	}
}

// TransactionRequest represents a payment initialization request
type TransactionRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"` // minor units
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TransactionResponse represents the response from transaction initialization
type TransactionResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    TransactionData `json:"data"`
}

// TransactionData contains the transaction initialization data
type TransactionData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionVerification represents transaction verification response
type TransactionVerification struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Data    TransactionDetails `json:"data"`
}

// TransactionDetails contains detailed transaction information
type TransactionDetails struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
	Channel   string `json:"channel"`
}

// PaystackError represents an error response from Paystack
type PaystackError struct {
	StatusCode int    `json:"-"`
	Status     bool   `json:"status"`
	Message    string `json:"message"`
}

func (e *PaystackError) Error() string {
	return fmt.Sprintf("paystack error (status %d): %s", e.StatusCode, e.Message)
}

func (s *PaystackService) Name() string { return "paystack" }

// InitiatePayment initializes a Paystack transaction for a donation
func (s *PaystackService) InitiatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error) {
	callback := s.config.CallbackURL
	if callback == "" {
		callback = req.ReturnURL
	}

	resp, err := s.InitializeTransaction(ctx, &TransactionRequest{
		Email:       req.DonorEmail,
		Amount:      toMinorUnits(req.Amount),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: callback,
		Metadata: map[string]string{
			"donor_name":  req.DonorName,
			"description": req.Description,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Paystack transaction: %w", err)
	}

	return &PaymentSession{
		Token:       resp.Data.AccessCode,
		RedirectURL: resp.Data.AuthorizationURL,
	}, nil
}

// VerifyPayment asks Paystack for the outcome of a transaction
func (s *PaystackService) VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error) {
	verification, err := s.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}

	return verification.Data.verification(), nil
}

// InitializeTransaction initializes a payment transaction with Paystack
func (s *PaystackService) InitializeTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	var resp TransactionResponse
	if err := s.do(ctx, http.MethodPost, "/transaction/initialize", jsonData, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("transaction initialization failed: %s", resp.Message)
	}

	log.Printf("Paystack transaction %s initialized (%d %s)", req.Reference, req.Amount, req.Currency)
	return &resp, nil
}

// VerifyTransaction verifies a transaction with Paystack
func (s *PaystackService) VerifyTransaction(ctx context.Context, reference string) (*TransactionVerification, error) {
	var verification TransactionVerification
	if err := s.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &verification); err != nil {
		return nil, err
	}
	if !verification.Status {
		return nil, fmt.Errorf("transaction verification failed: %s", verification.Message)
	}
	return &verification, nil
}

func (s *PaystackService) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return s.handleAPIError(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// handleAPIError converts a non-200 Paystack response into an error
func (s *PaystackService) handleAPIError(statusCode int, body []byte) error {
	paystackErr := &PaystackError{StatusCode: statusCode}
	if err := json.Unmarshal(body, paystackErr); err != nil || paystackErr.Message == "" {
		paystackErr.Message = string(body)
	}
	return paystackErr
}

// VerifyWebhookSignature checks the x-paystack-signature header of a webhook
func (s *PaystackService) VerifyWebhookSignature(payload []byte, signature string) bool {
	return utils.VerifySHA512(s.config.SecretKey, payload, signature)
}

// PaystackWebhookEvent is the body Paystack posts to the webhook endpoint
type PaystackWebhookEvent struct {
	Event string             `json:"event"`
	Data  TransactionDetails `json:"data"`
}

// Verification converts a webhook event into a gateway-neutral result. Only
// charge events describe a donation payment.
func (e *PaystackWebhookEvent) Verification() (*PaymentVerification, bool) {
	if !strings.HasPrefix(e.Event, "charge.") || e.Data.Reference == "" {
		return nil, false
	}
	return e.Data.verification(), true
}

func (d TransactionDetails) verification() *PaymentVerification {
	result := &PaymentVerification{
		Reference: d.Reference,
		Status:    paystackStatus(d.Status),
		Amount:    float64(d.Amount) / 100,
	}
	if result.Status == models.DonationPaid {
		result.PaidAt = parsePaystackTime(d.PaidAt)
	}
	return result
}

// paystackStatus maps a Paystack transaction status to a donation status
func paystackStatus(status string) models.DonationStatus {
	switch status {
	case "success":
		return models.DonationPaid
	case "failed", "reversed":
		return models.DonationFailed
	case "abandoned":
		return models.DonationCancelled
	default:
		return models.DonationPending
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// parsePaystackTime parses Paystack timestamp format
func parsePaystackTime(timeStr string) time.Time {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t
		}
	}
	return time.Now()
}
