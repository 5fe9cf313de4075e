package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// UserRole represents the back-office role of a staff user
type UserRole string

const (
	UserRoleEditor UserRole = "editor"
	UserRoleAdmin  UserRole = "admin"
)

// User is a back-office staff account
type User struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         UserRole   `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CanManage reports whether u may change targets of the back office
func (u *User) CanManage() bool {
	return u.IsActive && (u.Role == UserRoleAdmin || u.Role == UserRoleEditor)
}

// IsAdmin reports whether u holds the admin role
func (u *User) IsAdmin() bool {
	return u.IsActive && u.Role == UserRoleAdmin
}

// UserCreateRequest represents the data needed to create a staff user.
// Password holds the already hashed password.
type UserCreateRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
}

// LoginRequest is the admin login form
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate validates user creation data
func (req *UserCreateRequest) Validate() error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(req.Email) {
		return errors.New("email format is invalid")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return errors.New("first name is required")
	}
	if req.Role != UserRoleAdmin && req.Role != UserRoleEditor {
		return errors.New("invalid user role")
	}
	return nil
}
