package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

const resendBaseURL = "https://api.resend.com"

// ResendEmailService sends receipts through the Resend API
type ResendEmailService struct {
	config  config.ResendConfig
	client  *http.Client
	baseURL string
}

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html,omitempty"`
	Text    string      `json:"text,omitempty"`
	Tags    []ResendTag `json:"tags,omitempty"`
}

// ResendTag represents a tag for email categorization
type ResendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// NewResendEmailService creates a new Resend receipt sender
func NewResendEmailService(cfg config.ResendConfig) *ResendEmailService {
	return &ResendEmailService{
		config:  cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: resendBaseURL,
	}
}

// getFromField returns the formatted from field
func (s *ResendEmailService) getFromField() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}

// SendDonationReceipt emails the receipt for a paid donation
func (s *ResendEmailService) SendDonationReceipt(ctx context.Context, donation *models.Donation) error {
	receipt, err := BuildReceipt(donation)
	if err != nil {
		return err
	}

	return s.sendEmail(ctx, ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{receipt.To},
		Subject: receipt.Subject,
		HTML:    receipt.HTML,
		Text:    receipt.Text,
		Tags: []ResendTag{
			{Name: "type", Value: "donation_receipt"},
			{Name: "category", Value: string(donation.Category)},
		},
	})
}

// sendEmail sends an email via Resend API
func (s *ResendEmailService) sendEmail(ctx context.Context, request ResendEmailRequest) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorResp ResendErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Message == "" {
			return fmt.Errorf("failed to send email, status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to send email: %s", errorResp.Message)
	}

	var response ResendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
