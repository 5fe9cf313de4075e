package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
	"donation-platform/internal/services"
)

type MockTargetService struct {
	mock.Mock
}

func (m *MockTargetService) ListCampaigns(ctx context.Context, q services.TargetQuery) ([]*models.Campaign, models.Page, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]*models.Campaign)
	return items, args.Get(1).(models.Page), args.Error(2)
}

func (m *MockTargetService) ListPrograms(ctx context.Context, q services.TargetQuery) ([]*models.Program, models.Page, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]*models.Program)
	return items, args.Get(1).(models.Page), args.Error(2)
}

func (m *MockTargetService) ListPatients(ctx context.Context, q services.TargetQuery) ([]*models.Patient, models.Page, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]*models.Patient)
	return items, args.Get(1).(models.Page), args.Error(2)
}

func (m *MockTargetService) GetCampaign(ctx context.Context, slug string) (*models.Campaign, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockTargetService) GetProgram(ctx context.Context, slug string) (*models.Program, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*models.Program)
	return p, args.Error(1)
}

func (m *MockTargetService) GetPatient(ctx context.Context, slug string) (*models.Patient, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *MockTargetService) CreateCampaign(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockTargetService) UpdateCampaign(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error) {
	args := m.Called(ctx, id, in)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockTargetService) CreateProgram(ctx context.Context, in *models.ProgramInput) (*models.Program, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*models.Program)
	return p, args.Error(1)
}

func (m *MockTargetService) UpdateProgram(ctx context.Context, id int, in *models.ProgramInput) (*models.Program, error) {
	args := m.Called(ctx, id, in)
	p, _ := args.Get(0).(*models.Program)
	return p, args.Error(1)
}

func (m *MockTargetService) CreatePatient(ctx context.Context, in *models.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *MockTargetService) UpdatePatient(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, id, in)
	p, _ := args.Get(0).(*models.Patient)
	return p, args.Error(1)
}

func (m *MockTargetService) DeleteTarget(ctx context.Context, category models.DonationCategory, id int) error {
	return m.Called(ctx, category, id).Error(0)
}

func (m *MockTargetService) SetTargetImage(ctx context.Context, category models.DonationCategory, id int, reader io.Reader, filename string) (string, error) {
	args := m.Called(ctx, category, id, reader, filename)
	return args.String(0), args.Error(1)
}

func (m *MockTargetService) CheckTarget(ctx context.Context, target models.DonationTarget) (string, error) {
	args := m.Called(ctx, target)
	return args.String(0), args.Error(1)
}

type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) Initiate(ctx context.Context, payload *models.DonationPayload) (*services.InitiateResult, error) {
	args := m.Called(ctx, payload)
	res, _ := args.Get(0).(*services.InitiateResult)
	return res, args.Error(1)
}

func (m *MockDonationService) GetByReference(ctx context.Context, reference string) (*models.Donation, error) {
	args := m.Called(ctx, reference)
	d, _ := args.Get(0).(*models.Donation)
	return d, args.Error(1)
}

func (m *MockDonationService) ApplyVerification(ctx context.Context, v *services.PaymentVerification) (*models.Donation, error) {
	args := m.Called(ctx, v)
	d, _ := args.Get(0).(*models.Donation)
	return d, args.Error(1)
}

func (m *MockDonationService) VerifyAndSettle(ctx context.Context, reference string) (*models.Donation, error) {
	args := m.Called(ctx, reference)
	d, _ := args.Get(0).(*models.Donation)
	return d, args.Error(1)
}

func (m *MockDonationService) List(ctx context.Context, q services.DonationQuery) ([]*models.Donation, models.Page, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]*models.Donation)
	return items, args.Get(1).(models.Page), args.Error(2)
}

func (m *MockDonationService) ExportXLSX(ctx context.Context, q services.DonationQuery, w io.Writer) (int, error) {
	args := m.Called(ctx, q, w)
	if data, ok := args.Get(2).([]byte); ok {
		w.Write(data)
	}
	return args.Int(0), args.Error(1)
}

func (m *MockDonationService) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogAction(ctx context.Context, adminUserID int, action, targetType string, targetID int, details interface{}, r *http.Request) error {
	return m.Called(ctx, adminUserID, action, targetType, targetID, details, r).Error(0)
}

func (m *MockAuditService) List(ctx context.Context, filter repositories.AuditLogFilter) ([]*models.AuditLog, int, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]*models.AuditLog)
	return logs, args.Int(1), args.Error(2)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAuthService) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) StartSession(w http.ResponseWriter, r *http.Request, user *models.User) (string, error) {
	args := m.Called(w, r, user)
	return args.String(0), args.Error(1)
}

func (m *MockSessionManager) EndSession(w http.ResponseWriter, r *http.Request) error {
	return m.Called(w, r).Error(0)
}

func (m *MockSessionManager) CSRFToken(r *http.Request) string {
	return m.Called(r).String(0)
}

// withURLParams attaches chi route parameters to r
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}
