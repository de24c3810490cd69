package domain

import "time"

// OTPTrack distingue los dos ciclos de vida independientes de un usuario.
type OTPTrack string

const (
	OTPTrackVerify OTPTrack = "verify"
	OTPTrackReset  OTPTrack = "reset"
)

// OTPState es el estado de un track: none -> pending -> consumed, o pending -> expired.
type OTPState string

const (
	OTPStateNone     OTPState = "none"
	OTPStatePending  OTPState = "pending"
	OTPStateExpired  OTPState = "expired"
	OTPStateConsumed OTPState = "consumed"
)

// OTPStatus es la vista de solo lectura que el cliente usa para retomar su temporizador.
type OTPStatus struct {
	IsVerified   bool
	HasActiveOTP bool
	ExpiresAt    *time.Time
}

// IssuedOTP es el resultado de OTPCodec.Generate.
type IssuedOTP struct {
	Code      string
	ExpiresAt time.Time
}

func trackState(code string, expiresAt *time.Time, now time.Time) OTPState {
	if code == "" || expiresAt == nil {
		return OTPStateNone
	}
	if now.After(*expiresAt) {
		return OTPStateExpired
	}
	return OTPStatePending
}
