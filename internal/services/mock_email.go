package services

import (
	"context"
	"log"
	"sync"

	"donation-platform/internal/models"
)

// MockEmailService logs receipts instead of sending them. It is used when
// neither Resend nor SMTP is configured, and records what it was asked to
// send so tests can inspect it.
type MockEmailService struct {
	mu   sync.Mutex
	sent []*Receipt
}

// NewMockEmailService creates a new mock receipt sender
func NewMockEmailService() *MockEmailService {
	log.Println("Email service: using mock (no Resend API key or SMTP host provided)")
	return &MockEmailService{}
}

// SendDonationReceipt renders the receipt and logs it
func (s *MockEmailService) SendDonationReceipt(ctx context.Context, donation *models.Donation) error {
	receipt, err := BuildReceipt(donation)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sent = append(s.sent, receipt)
	s.mu.Unlock()

	log.Printf("MOCK EMAIL: receipt %q to %s", receipt.Subject, receipt.To)
	return nil
}

// Sent returns the receipts rendered so far
func (s *MockEmailService) Sent() []*Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Receipt, len(s.sent))
	copy(out, s.sent)
	return out
}
