package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

func paidDonation() *models.Donation {
	paidAt := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	id := 3
	return &models.Donation{
		Reference:   "DON-20240314-AB12CD",
		Category:    models.CategoryPatient,
		TargetID:    &id,
		TargetTitle: "Amina's heart surgery",
		Amount:      150,
		Currency:    "usd",
		DonorName:   "Yusuf",
		DonorEmail:  "yusuf@example.com",
		Status:      models.DonationPaid,
		PaidAt:      &paidAt,
	}
}

func TestBuildReceipt(t *testing.T) {
	r, err := BuildReceipt(paidDonation())
	require.NoError(t, err)

	assert.Equal(t, "yusuf@example.com", r.To)
	assert.Equal(t, "Your donation receipt DON-20240314-AB12CD", r.Subject)
	assert.Contains(t, r.Text, "USD 150.00 towards Amina's heart surgery")
	assert.Contains(t, r.Text, "14 March 2024")
	// html/template escapes the apostrophe
	assert.Contains(t, r.HTML, "Amina&#39;s heart surgery")
}

func TestBuildReceipt_Purpose(t *testing.T) {
	d := paidDonation()
	d.TargetTitle = ""
	d.Category = models.CategoryZakat
	r, err := BuildReceipt(d)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "towards Zakat")

	d.Category = models.CategoryGeneral
	r, err = BuildReceipt(d)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "towards the general fund")

	d.DonorEmail = ""
	_, err = BuildReceipt(d)
	assert.Error(t, err)
}

func TestResendEmailService_SendDonationReceipt(t *testing.T) {
	var got ResendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer server.Close()

	svc := NewResendEmailService(config.ResendConfig{APIKey: "re_test", FromEmail: "give@example.org", FromName: "Give"})
	svc.baseURL = server.URL

	require.NoError(t, svc.SendDonationReceipt(context.Background(), paidDonation()))
	assert.Equal(t, "Give <give@example.org>", got.From)
	assert.Equal(t, []string{"yusuf@example.com"}, got.To)
	assert.Contains(t, got.Tags, ResendTag{Name: "category", Value: "patient"})
}

func TestResendEmailService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"validation_error","message":"invalid from address"}`))
	}))
	defer server.Close()

	svc := NewResendEmailService(config.ResendConfig{APIKey: "re_test", FromEmail: "bad"})
	svc.baseURL = server.URL

	err := svc.SendDonationReceipt(context.Background(), paidDonation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
}

func TestMockEmailService_RecordsReceipts(t *testing.T) {
	svc := NewMockEmailService()
	require.NoError(t, svc.SendDonationReceipt(context.Background(), paidDonation()))
	require.Len(t, svc.Sent(), 1)
	assert.Equal(t, "yusuf@example.com", svc.Sent()[0].To)
}

func TestNewReceiptSender(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, &MockEmailService{}, NewReceiptSender(cfg))

	cfg.Email.SMTPHost = "smtp.example.org"
	assert.IsType(t, &SMTPEmailService{}, NewReceiptSender(cfg))

	cfg.Resend.APIKey = "re_test"
	assert.IsType(t, &ResendEmailService{}, NewReceiptSender(cfg))
}

func TestSMTPEmailService_Message(t *testing.T) {
	svc := NewSMTPEmailService(config.EmailConfig{SMTPHost: "localhost", SMTPPort: 2525, FromEmail: "give@example.org", FromName: "Give"})
	r, err := BuildReceipt(paidDonation())
	require.NoError(t, err)

	m := svc.message(r)
	assert.Equal(t, []string{"yusuf@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{r.Subject}, m.GetHeader("Subject"))
	require.Len(t, m.GetHeader("From"), 1)
	assert.Contains(t, m.GetHeader("From")[0], "<give@example.org>")
}
