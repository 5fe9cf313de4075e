package services

import (
	"context"
	"fmt"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

// PaymentRequest carries what a hosted payment page needs for one donation
type PaymentRequest struct {
	Reference   string
	Amount      float64
	Currency    string
	DonorName   string
	DonorEmail  string
	DonorPhone  string
	Description string
	ReturnURL   string // where the gateway sends the donor afterwards
}

// PaymentSession is the gateway's answer to an initiation
type PaymentSession struct {
	Token       string
	RedirectURL string
}

// PaymentVerification is the gateway's view of a payment's outcome
type PaymentVerification struct {
	Reference string
	Status    models.DonationStatus
	Amount    float64
	PaidAt    time.Time
}

// PaymentGateway starts hosted payments and reports their outcome
type PaymentGateway interface {
	Name() string
	InitiatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error)
	VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error)
}

// amountRounder is implemented by gateways that charge in coarser units than
// a donation amount is stored in. The stored amount must equal the charge or
// settlement reports will not match it.
type amountRounder interface {
	RoundAmount(amount float64) float64
}

// NewPaymentGateway builds the gateway selected by configuration
func NewPaymentGateway(cfg *config.Config) (PaymentGateway, error) {
	switch cfg.Payment.Gateway {
	case "midtrans":
		if cfg.Midtrans.ServerKey == "" {
			return nil, fmt.Errorf("MIDTRANS_SERVER_KEY is required for the midtrans gateway")
		}
		return NewMidtransService(cfg.Midtrans), nil
	case "paystack":
		if cfg.Paystack.SecretKey == "" {
			return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required for the paystack gateway")
		}
		return NewPaystackService(cfg.Paystack), nil
	case "mock", "":
		return NewMockPaymentService(cfg.Server.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Payment.Gateway)
	}
}
