package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"donation-platform/internal/models"
	"donation-platform/internal/repositories"
	"donation-platform/internal/utils"
)

// AuditService handles audit logging operations
type AuditService struct {
	auditRepo AuditLogStore
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditLogStore) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// LogAction logs an administrative action. r may be nil for actions taken
// outside a request, such as from the CLI.
func (s *AuditService) LogAction(ctx context.Context, adminUserID int, action, targetType string, targetID int, details interface{}, r *http.Request) error {
	var detailsJSON json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		detailsJSON = b
	}

	req := &models.AuditLogCreateRequest{
		AdminUserID: adminUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Details:     detailsJSON,
	}
	if r != nil {
		req.IPAddress = utils.ClientIP(r)
		req.UserAgent = r.UserAgent()
	}

	if _, err := s.auditRepo.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

// List retrieves audit logs with pagination and filtering
func (s *AuditService) List(ctx context.Context, filter repositories.AuditLogFilter) ([]*models.AuditLog, int, error) {
	return s.auditRepo.List(ctx, filter)
}
