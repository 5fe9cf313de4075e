package services

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"donation-platform/internal/models"
)

// MockPaymentService is a gateway for local development. Its payment page is
// the donation success page, and every initiated payment verifies as paid.
type MockPaymentService struct {
	baseURL string

	mu        sync.Mutex
	initiated map[string]float64
}

// NewMockPaymentService creates a mock gateway redirecting under baseURL
func NewMockPaymentService(baseURL string) *MockPaymentService {
	return &MockPaymentService{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		initiated: make(map[string]float64),
	}
}

func (s *MockPaymentService) Name() string { return "mock" }

// InitiatePayment records the payment and returns a redirect to the success page
func (s *MockPaymentService) InitiatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error) {
	s.mu.Lock()
	s.initiated[req.Reference] = req.Amount
	s.mu.Unlock()

	log.Printf("Mock payment: %s for %.2f %s by %s", req.Reference, req.Amount, req.Currency, req.DonorEmail)

	return &PaymentSession{
		Token:       "mock_" + req.Reference,
		RedirectURL: s.baseURL + "/payment/callback?reference=" + url.QueryEscape(req.Reference),
	}, nil
}

// VerifyPayment reports initiated payments as paid and others as pending
func (s *MockPaymentService) VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error) {
	s.mu.Lock()
	amount, ok := s.initiated[reference]
	s.mu.Unlock()

	if !ok {
		return &PaymentVerification{Reference: reference, Status: models.DonationPending}, nil
	}
	return &PaymentVerification{
		Reference: reference,
		Status:    models.DonationPaid,
		Amount:    amount,
		PaidAt:    time.Now(),
	}, nil
}
