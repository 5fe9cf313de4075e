package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"donation-platform/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, last_login_at, created_at, updated_at`

// UserRepository handles back-office user data operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return user, nil
}

// Create creates a new user. req.Password must already be hashed.
func (r *UserRepository) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		req.Email, req.Password, req.FirstName, req.LastName, req.Role, time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user with email %s: %w", req.Email, models.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with id %d: %w", id, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (for authentication)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE LOWER(email) = $1", email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s: %w", email, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash and reactivates the user
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string, role models.UserRole) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $2, role = $3, is_active = TRUE, updated_at = $4 WHERE id = $1",
		id, passwordHash, role, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user with id %d: %w", id, models.ErrUserNotFound)
	}
	return nil
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET last_login_at = $2 WHERE id = $1", id, at); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
