package domain

import "time"

// AuthProvider identifica como se creó la cuenta. Es solo informativo.
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

type User struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	PasswordHash       string       `json:"-"`
	GoogleID           string       `json:"-"`
	ProfilePicture     string       `json:"profilePicture,omitempty"`
	AuthProvider       AuthProvider `json:"authProvider"`
	IsAccountVerified  bool         `json:"isAccountVerified"`
	VerifyOTP          string       `json:"-"`
	VerifyOTPExpiresAt *time.Time   `json:"-"`
	ResetOTP           string       `json:"-"`
	ResetOTPExpiresAt  *time.Time   `json:"-"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// VerifyState deriva el estado del track de verificación en el instante now.
func (u User) VerifyState(now time.Time) OTPState {
	if u.IsAccountVerified {
		return OTPStateConsumed
	}
	return trackState(u.VerifyOTP, u.VerifyOTPExpiresAt, now)
}

// ResetState deriva el estado del track de reseteo en el instante now.
// Un reset consumido no deja rastro en la fila, por eso nunca devuelve OTPStateConsumed.
func (u User) ResetState(now time.Time) OTPState {
	return trackState(u.ResetOTP, u.ResetOTPExpiresAt, now)
}

// HasPassword indica si la cuenta admite login por contraseña.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
