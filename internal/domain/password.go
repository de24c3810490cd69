package domain

import (
	"errors"
	"unicode"
)

var (
	// ErrWeakPassword se devuelve cuando la contraseña no cumple la política.
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number")
	// ErrPasswordTooLong cubre el límite de bcrypt, que solo acepta 72 bytes.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// CheckPasswordStrength aplica la política compartida por servidor y cliente.
func CheckPasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
