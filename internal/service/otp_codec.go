package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"time"
	"unicode"

	"otp-auth/internal/domain"
)

const (
	otpLength     = 6
	DefaultOTPTTL = 10 * time.Minute
)

// OTPCodec genera códigos de 6 dígitos y calcula el digest que se persiste.
type OTPCodec struct {
	pepper []byte
	ttl    time.Duration
	now    func() time.Time
	rand   io.Reader
}

// NewOTPCodec crea un codec con el TTL dado (10 minutos si ttl <= 0).
func NewOTPCodec(pepper string, ttl time.Duration) *OTPCodec {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPCodec{
		pepper: []byte(pepper),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		rand:   rand.Reader,
	}
}

// WithClock reemplaza el reloj del codec. Útil en tests para adelantar el tiempo.
func (c *OTPCodec) WithClock(now func() time.Time) *OTPCodec {
	c.now = now
	return c
}

func (c *OTPCodec) Now() time.Time {
	return c.now().UTC()
}

func (c *OTPCodec) TTL() time.Duration {
	return c.ttl
}

// Generate devuelve un código decimal de ancho fijo (conserva ceros a la izquierda)
// y su expiración absoluta.
func (c *OTPCodec) Generate() (domain.IssuedOTP, error) {
	n, err := rand.Int(c.rand, big.NewInt(1000000))
	if err != nil {
		return domain.IssuedOTP{}, fmt.Errorf("generate otp: %w", err)
	}
	return domain.IssuedOTP{
		Code:      fmt.Sprintf("%06d", n.Int64()),
		ExpiresAt: c.Now().Add(c.ttl),
	}, nil
}

// Digest calcula el valor persistido para un código. Es determinista para que
// la base pueda compararlo dentro de un UPDATE condicional.
func (c *OTPCodec) Digest(userID string, track domain.OTPTrack, code string) string {
	mac := hmac.New(sha256.New, c.pepper)
	mac.Write([]byte(userID + ":" + string(track) + ":" + code))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Matches compara en tiempo constante un código con el digest almacenado.
func (c *OTPCodec) Matches(userID string, track domain.OTPTrack, code, stored string) bool {
	if stored == "" {
		return false
	}
	expected := c.Digest(userID, track, code)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1
}

func isValidOTPCode(code string) bool {
	if len(code) != otpLength {
		return false
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
