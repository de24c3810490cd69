package service

import (
	"context"
	"strings"
	"sync"
	"time"
)

// OTPRateLimiter limita la frecuencia de emisiones de OTP y de intentos OAuth por clave.
// Allow devuelve si la solicitud pasa y, si no, cuánto falta para que se abra la ventana.
type OTPRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

type otpRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	now    func() time.Time
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria de ventana deslizante.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	return newOTPRateLimiter(window, max, func() time.Time { return time.Now().UTC() })
}

func newOTPRateLimiter(window time.Duration, max int, now func() time.Time) *otpRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window: window,
		max:    max,
		now:    now,
		hits:   make(map[string][]time.Time),
	}
}

func (l *otpRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	key = normalizeLimiterKey(key)
	if key == "" {
		return false, l.window
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false, kept[0].Add(l.window).Sub(now)
	}
	l.hits[key] = append(kept, now)
	return true, 0
}

func normalizeLimiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
