package services

import (
	"context"
	"io"
	"net/http"
	"time"

	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
)

// CampaignStore is the persistence the target service needs for campaigns
type CampaignStore interface {
	List(ctx context.Context, filter repositories.TargetFilter) ([]*models.Campaign, int, error)
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	Create(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error)
	Update(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error)
	Delete(ctx context.Context, id int) error
	UpdateImage(ctx context.Context, id int, imageURL string) error
}

// ProgramStore is the persistence the target service needs for programs
type ProgramStore interface {
	List(ctx context.Context, filter repositories.TargetFilter) ([]*models.Program, int, error)
	GetByID(ctx context.Context, id int) (*models.Program, error)
	GetBySlug(ctx context.Context, slug string) (*models.Program, error)
	Create(ctx context.Context, in *models.ProgramInput) (*models.Program, error)
	Update(ctx context.Context, id int, in *models.ProgramInput) (*models.Program, error)
	Delete(ctx context.Context, id int) error
	UpdateImage(ctx context.Context, id int, imageURL string) error
}

// PatientStore is the persistence the target service needs for patients
type PatientStore interface {
	List(ctx context.Context, filter repositories.TargetFilter) ([]*models.Patient, int, error)
	GetByID(ctx context.Context, id int) (*models.Patient, error)
	GetBySlug(ctx context.Context, slug string) (*models.Patient, error)
	Create(ctx context.Context, in *models.PatientInput) (*models.Patient, error)
	Update(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, id int) error
	UpdateImage(ctx context.Context, id int, imageURL string) error
}

// DonationStore persists donations and their state changes
type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	GetByReference(ctx context.Context, reference string) (*models.Donation, error)
	SetPaymentDetails(ctx context.Context, id int, gateway, token, paymentURL string) error
	MarkPaid(ctx context.Context, reference string, paidAt time.Time) (*models.Donation, bool, error)
	MarkStatus(ctx context.Context, reference string, status models.DonationStatus) (*models.Donation, bool, error)
	List(ctx context.Context, filters models.DonationFilters) ([]*models.Donation, int, error)
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore looks up and updates back-office users
type UserStore interface {
	Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string, role models.UserRole) error
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

// AuditLogStore records and lists back-office actions
type AuditLogStore interface {
	Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error)
	List(ctx context.Context, filter repositories.AuditLogFilter) ([]*models.AuditLog, int, error)
}

// TargetCache caches public target listings. Get reports whether key was found.
type TargetCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, category models.DonationCategory) error
}

// ImageUploader stores resized target cover images
type ImageUploader interface {
	UploadTargetImage(ctx context.Context, category models.DonationCategory, targetID int, reader io.Reader, filename string) (*ImageUploadResult, error)
	DeleteUpload(ctx context.Context, result *ImageUploadResult)
}

// TargetServiceInterface is what the HTTP layer uses to read and manage targets
type TargetServiceInterface interface {
	ListCampaigns(ctx context.Context, q TargetQuery) ([]*models.Campaign, models.Page, error)
	ListPrograms(ctx context.Context, q TargetQuery) ([]*models.Program, models.Page, error)
	ListPatients(ctx context.Context, q TargetQuery) ([]*models.Patient, models.Page, error)
	GetCampaign(ctx context.Context, slug string) (*models.Campaign, error)
	GetProgram(ctx context.Context, slug string) (*models.Program, error)
	GetPatient(ctx context.Context, slug string) (*models.Patient, error)

	CreateCampaign(ctx context.Context, in *models.CampaignInput) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id int, in *models.CampaignInput) (*models.Campaign, error)
	CreateProgram(ctx context.Context, in *models.ProgramInput) (*models.Program, error)
	UpdateProgram(ctx context.Context, id int, in *models.ProgramInput) (*models.Program, error)
	CreatePatient(ctx context.Context, in *models.PatientInput) (*models.Patient, error)
	UpdatePatient(ctx context.Context, id int, in *models.PatientInput) (*models.Patient, error)
	DeleteTarget(ctx context.Context, category models.DonationCategory, id int) error
	SetTargetImage(ctx context.Context, category models.DonationCategory, id int, reader io.Reader, filename string) (string, error)

	CheckTarget(ctx context.Context, target models.DonationTarget) (string, error)
}

// DonationServiceInterface is what the HTTP layer uses for donations
type DonationServiceInterface interface {
	Initiate(ctx context.Context, payload *models.DonationPayload) (*InitiateResult, error)
	GetByReference(ctx context.Context, reference string) (*models.Donation, error)
	ApplyVerification(ctx context.Context, v *PaymentVerification) (*models.Donation, error)
	VerifyAndSettle(ctx context.Context, reference string) (*models.Donation, error)
	List(ctx context.Context, q DonationQuery) ([]*models.Donation, models.Page, error)
	ExportXLSX(ctx context.Context, q DonationQuery, w io.Writer) (int, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// AuthServiceInterface authenticates back-office users
type AuthServiceInterface interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// AuditServiceInterface records back-office actions
type AuditServiceInterface interface {
	LogAction(ctx context.Context, adminUserID int, action, targetType string, targetID int, details interface{}, r *http.Request) error
	List(ctx context.Context, filter repositories.AuditLogFilter) ([]*models.AuditLog, int, error)
}
