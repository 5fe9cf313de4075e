package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"gopkg.in/gomail.v2"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

// ReceiptSender delivers the thank-you receipt for a paid donation
type ReceiptSender interface {
	SendDonationReceipt(ctx context.Context, donation *models.Donation) error
}

// NewReceiptSender picks the receipt transport from configuration: Resend
// when an API key is set, SMTP when a host is set, otherwise a log-only mock.
func NewReceiptSender(cfg *config.Config) ReceiptSender {
	switch {
	case cfg.Resend.APIKey != "":
		return NewResendEmailService(cfg.Resend)
	case cfg.Email.SMTPHost != "":
		return NewSMTPEmailService(cfg.Email)
	default:
		return NewMockEmailService()
	}
}

// ReceiptData is what the receipt templates render
type ReceiptData struct {
	DonorName string
	Reference string
	Amount    string
	Purpose   string
	PaidAt    string
}

// Receipt is a rendered receipt ready to hand to a transport
type Receipt struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

var receiptHTML = htmltemplate.Must(htmltemplate.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you, {{.DonorName}}</h2>
  <p>We have received your donation of <strong>{{.Amount}}</strong> towards <strong>{{.Purpose}}</strong>.</p>
  <table>
    <tr><td>Reference</td><td>{{.Reference}}</td></tr>
    <tr><td>Date</td><td>{{.PaidAt}}</td></tr>
  </table>
  <p>Please keep this email as your receipt.</p>
</body>
</html>`))

var receiptText = texttemplate.Must(texttemplate.New("receipt").Parse(`Thank you, {{.DonorName}}

We have received your donation of {{.Amount}} towards {{.Purpose}}.

Reference: {{.Reference}}
Date: {{.PaidAt}}

Please keep this email as your receipt.
`))

// BuildReceipt renders the receipt for a paid donation
func BuildReceipt(d *models.Donation) (*Receipt, error) {
	if d.DonorEmail == "" {
		return nil, fmt.Errorf("donation %s has no donor email", d.Reference)
	}

	paidAt := time.Now()
	if d.PaidAt != nil {
		paidAt = *d.PaidAt
	}

	data := ReceiptData{
		DonorName: d.DonorName,
		Reference: d.Reference,
		Amount:    FormatMoney(d.Amount, d.Currency),
		Purpose:   receiptPurpose(d),
		PaidAt:    paidAt.Format("2 January 2006"),
	}

	var html, text bytes.Buffer
	if err := receiptHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	if err := receiptText.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	return &Receipt{
		To:      d.DonorEmail,
		Subject: fmt.Sprintf("Your donation receipt %s", d.Reference),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func receiptPurpose(d *models.Donation) string {
	if d.TargetTitle != "" {
		return d.TargetTitle
	}
	switch d.Category {
	case models.CategoryZakat:
		return "Zakat"
	case models.CategoryGeneral, "":
		return "the general fund"
	}
	return "our " + string(d.Category) + "s"
}

// FormatMoney renders an amount with its currency code and two decimals
func FormatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), amount)
}

// SMTPEmailService sends receipts through an SMTP relay
type SMTPEmailService struct {
	config config.EmailConfig
	dialer *gomail.Dialer
}

// NewSMTPEmailService creates an SMTP receipt sender
func NewSMTPEmailService(cfg config.EmailConfig) *SMTPEmailService {
	return &SMTPEmailService{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

// SendDonationReceipt emails the receipt over SMTP
func (s *SMTPEmailService) SendDonationReceipt(ctx context.Context, donation *models.Donation) error {
	receipt, err := BuildReceipt(donation)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.message(receipt)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPEmailService) message(r *Receipt) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetHeader("To", r.To)
	m.SetHeader("Subject", r.Subject)
	m.SetBody("text/plain", r.Text)
	m.AddAlternative("text/html", r.HTML)
	return m
}
