package service

import (
	"errors"

	"otp-auth/internal/domain"
)

var (
	ErrValidation           = errors.New("invalid request")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrWeakPassword         = domain.ErrWeakPassword
	ErrPasswordTooLong      = domain.ErrPasswordTooLong
	ErrNotFound             = errors.New("user not found")
	ErrAlreadyVerified      = errors.New("account already verified")
	ErrInvalidCode          = errors.New("invalid code")
	ErrCodeExpired          = errors.New("code expired")
	ErrMailDeliveryFailed   = errors.New("email send failed")
	ErrEmailTaken           = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrOAuthInvalid         = errors.New("oauth data invalid")
	ErrOAuthEmailUnverified = errors.New("google account email is not verified")
	ErrOAuthDisabled        = errors.New("google oauth not configured")
	ErrRateLimited          = errors.New("rate limited")
)
