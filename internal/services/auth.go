package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"donation-platform/internal/models"
	"donation-platform/internal/utils"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService authenticates back-office staff
type AuthService struct {
	users UserStore
	now   func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users, now: time.Now}
}

// Login checks an email and password and returns the staff user. Unknown
// emails, wrong passwords and disabled accounts all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	if errs := models.ValidateStruct(req); errs != nil {
		return nil, errs
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		log.Printf("Unreadable password hash for user %d: %v", user.ID, err)
		return nil, ErrInvalidCredentials
	}
	if !valid || !user.CanManage() {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("Failed to record login for user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

// GetUser returns an active staff user by id, as stored in the session
func (s *AuthService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanManage() {
		return nil, models.ErrUnauthorized
	}
	return user, nil
}

// EnsureUser creates a staff user, or resets the password and role of the
// one already registered under the email. It reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, email, password, firstName, lastName string, role models.UserRole) (*models.User, bool, error) {
	if err := utils.CheckPasswordStrength(password); err != nil {
		return nil, false, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.UpdatePassword(ctx, existing.ID, hash, role); err != nil {
			return nil, false, err
		}
		existing.PasswordHash = hash
		existing.Role = role
		return existing, false, nil
	case !errors.Is(err, models.ErrUserNotFound):
		return nil, false, err
	}

	user, err := s.users.Create(ctx, &models.UserCreateRequest{
		Email:     strings.TrimSpace(email),
		Password:  hash,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}
