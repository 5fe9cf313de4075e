package models

import (
	"encoding/json"
	"time"
)

// AuditLog represents a back-office action log entry
type AuditLog struct {
	ID          int             `json:"id" db:"id"`
	AdminUserID int             `json:"admin_user_id" db:"admin_user_id"`
	AdminEmail  string          `json:"admin_email,omitempty" db:"-"`
	Action      string          `json:"action" db:"action"`
	TargetType  string          `json:"target_type" db:"target_type"`
	TargetID    int             `json:"target_id" db:"target_id"`
	Details     json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress   string          `json:"ip_address" db:"ip_address"`
	UserAgent   string          `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// AuditLogCreateRequest represents a request to create an audit log entry
type AuditLogCreateRequest struct {
	AdminUserID int
	Action      string
	TargetType  string
	TargetID    int
	Details     json.RawMessage
	IPAddress   string
	UserAgent   string
}

const (
	AuditActionCreate      = "create"
	AuditActionUpdate      = "update"
	AuditActionDelete      = "delete"
	AuditActionImageUpload = "image_upload"
	AuditActionExport      = "export"
	AuditActionLogin       = "login"
)

const (
	AuditTargetCampaign = "campaign"
	AuditTargetProgram  = "program"
	AuditTargetPatient  = "patient"
	AuditTargetDonation = "donation"
	AuditTargetUser     = "user"
)

// Page describes one page of a listing
type Page struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// NormalizePaging clamps page and perPage to sane bounds
func NormalizePaging(page, perPage, defaultPerPage, maxPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
