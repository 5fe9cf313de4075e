package services

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

// MidtransService creates Snap payment pages and checks transaction status
type MidtransService struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

// NewMidtransService creates a Midtrans gateway for the configured environment
func NewMidtransService(cfg config.MidtransConfig) *MidtransService {
	env := midtrans.Sandbox
	if strings.EqualFold(cfg.Environment, "production") {
		env = midtrans.Production
	}

	s := &MidtransService{serverKey: cfg.ServerKey}
	s.snap.New(cfg.ServerKey, env)
	s.core.New(cfg.ServerKey, env)
	return s
}

func (s *MidtransService) Name() string { return "midtrans" }

// RoundAmount returns amount in whole currency units, the only precision
// Snap accepts
func (s *MidtransService) RoundAmount(amount float64) float64 {
	return math.Round(amount)
}

// InitiatePayment creates a Snap transaction keyed by the donation reference
func (s *MidtransService) InitiatePayment(ctx context.Context, req *PaymentRequest) (*PaymentSession, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount %v", req.Amount)
	}

	first, last := splitName(req.DonorName)
	gross := int64(s.RoundAmount(req.Amount))

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: first,
			LName: last,
			Email: req.DonorEmail,
			Phone: req.DonorPhone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.Reference,
				Price: gross,
				Qty:   1,
				Name:  truncate(req.Description, 50),
			},
		},
	}
	if req.ReturnURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: req.ReturnURL}
	}

	resp, merr := s.snap.CreateTransaction(snapReq)
	if merr != nil {
		return nil, fmt.Errorf("failed to create Midtrans transaction: %s", merr.Error())
	}

	return &PaymentSession{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// VerifyPayment checks the transaction status through the Core API
func (s *MidtransService) VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error) {
	resp, merr := s.core.CheckTransaction(reference)
	if merr != nil {
		return nil, fmt.Errorf("failed to check Midtrans transaction: %s", merr.Error())
	}

	n := MidtransNotification{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		GrossAmount:       resp.GrossAmount,
		SettlementTime:    resp.SettlementTime,
	}
	return n.Verification(), nil
}

// MidtransNotification is the HTTP notification Midtrans posts after a
// transaction changes state.
type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	SettlementTime    string `json:"settlement_time"`
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server_key)
func (s *MidtransService) VerifySignature(n *MidtransNotification) bool {
	return VerifyMidtransSignature(n, s.serverKey)
}

// VerifyMidtransSignature checks a notification's signature against serverKey
func VerifyMidtransSignature(n *MidtransNotification, serverKey string) bool {
	if n.SignatureKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) == 1
}

// Status maps the notification to a donation status. A captured card
// payment flagged "challenge" stays pending until Midtrans decides.
func (n *MidtransNotification) Status() models.DonationStatus {
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "challenge" {
			return models.DonationPending
		}
		if n.FraudStatus == "deny" {
			return models.DonationFailed
		}
		return models.DonationPaid
	case "settlement":
		return models.DonationPaid
	case "expire":
		return models.DonationExpired
	case "cancel":
		return models.DonationCancelled
	case "deny", "failure":
		return models.DonationFailed
	default:
		return models.DonationPending
	}
}

// Verification converts the notification into a gateway-neutral result
func (n *MidtransNotification) Verification() *PaymentVerification {
	v := &PaymentVerification{
		Reference: n.OrderID,
		Status:    n.Status(),
	}
	if amount, err := strconv.ParseFloat(n.GrossAmount, 64); err == nil {
		v.Amount = amount
	}
	if v.Status == models.DonationPaid {
		v.PaidAt = time.Now()
		for _, ts := range []string{n.SettlementTime, n.TransactionTime} {
			if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
				v.PaidAt = t
				break
			}
		}
	}
	return v
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
