package models

import "errors"

// Common errors used throughout the application
var (
	ErrTargetNotFound         = errors.New("donation target not found")
	ErrTargetInactive         = errors.New("donation target is not accepting donations")
	ErrTargetCategoryMismatch = errors.New("target does not belong to the selected category")
	ErrDonationNotFound       = errors.New("donation not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCategory        = errors.New("invalid donation category")
	ErrInvalidStatusChange    = errors.New("invalid donation status transition")
	ErrAmountMismatch         = errors.New("paid amount does not match the donation")
	ErrPaymentGateway         = errors.New("payment gateway error")
	ErrUnauthorized           = errors.New("unauthorized access")
	ErrInvalidInput           = errors.New("invalid input")
	ErrDuplicateEntry         = errors.New("duplicate entry")
)
