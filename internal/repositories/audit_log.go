package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"donation-platform/internal/models"
)

// AuditLogRepository handles audit log data operations
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// AuditLogFilter narrows audit log listings
type AuditLogFilter struct {
	Action     string
	TargetType string
	Limit      int
	Offset     int
}

// Create creates a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, req *models.AuditLogCreateRequest) (*models.AuditLog, error) {
	query := `
		INSERT INTO admin_audit_log (admin_user_id, action, target_type, target_id, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, admin_user_id, action, target_type, target_id, details, ip_address, user_agent, created_at`

	// A nil RawMessage must reach the driver as NULL rather than an empty byte slice
	var details interface{}
	if len(req.Details) > 0 {
		details = []byte(req.Details)
	}

	auditLog := &models.AuditLog{}
	var storedDetails []byte
	err := r.db.QueryRowContext(ctx, query,
		req.AdminUserID,
		req.Action,
		req.TargetType,
		req.TargetID,
		details,
		req.IPAddress,
		req.UserAgent,
		time.Now(),
	).Scan(
		&auditLog.ID,
		&auditLog.AdminUserID,
		&auditLog.Action,
		&auditLog.TargetType,
		&auditLog.TargetID,
		&storedDetails,
		&auditLog.IPAddress,
		&auditLog.UserAgent,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}
	auditLog.Details = storedDetails

	return auditLog, nil
}

// List retrieves audit logs, newest first, with the acting admin's email
func (r *AuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]*models.AuditLog, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("al.action = $%d", len(args)))
	}
	if filter.TargetType != "" {
		args = append(args, filter.TargetType)
		conditions = append(conditions, fmt.Sprintf("al.target_type = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_audit_log al "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to get audit log count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT al.id, al.admin_user_id, al.action, al.target_type, al.target_id,
		       al.details, al.ip_address, al.user_agent, al.created_at, u.email
		FROM admin_audit_log al
		JOIN users u ON al.admin_user_id = u.id
		%s
		ORDER BY al.created_at DESC, al.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	auditLogs := []*models.AuditLog{}
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var details []byte

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.AdminUserID,
			&auditLog.Action,
			&auditLog.TargetType,
			&auditLog.TargetID,
			&details,
			&auditLog.IPAddress,
			&auditLog.UserAgent,
			&auditLog.CreatedAt,
			&auditLog.AdminEmail,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}
		auditLog.Details = details

		auditLogs = append(auditLogs, auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return auditLogs, total, nil
}
