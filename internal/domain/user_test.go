package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheckPasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Secret123", true},
		{"Ñandú2024", true},
		{"short1A", false},
		{"alllower123", false},
		{"ALLUPPER123", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		err := CheckPasswordStrength(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.password, err)
		}
		if !tc.ok && !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("%q: expected ErrWeakPassword, got %v", tc.password, err)
		}
	}

	if err := CheckPasswordStrength("Aa1" + strings.Repeat("x", 69)); err != nil {
		t.Fatalf("72 bytes: expected ok, got %v", err)
	}
	if err := CheckPasswordStrength("Aa1" + strings.Repeat("x", 77)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("80 bytes: expected ErrPasswordTooLong, got %v", err)
	}
}

func TestUserOTPStates(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	exp := now.Add(10 * time.Minute)

	u := User{}
	if got := u.VerifyState(now); got != OTPStateNone {
		t.Fatalf("expected none, got %s", got)
	}

	u.VerifyOTP = "digest"
	u.VerifyOTPExpiresAt = &exp
	if got := u.VerifyState(exp); got != OTPStatePending {
		t.Fatalf("expected pending at the expiry instant, got %s", got)
	}
	if got := u.VerifyState(exp.Add(time.Millisecond)); got != OTPStateExpired {
		t.Fatalf("expected expired, got %s", got)
	}

	u.IsAccountVerified = true
	if got := u.VerifyState(now); got != OTPStateConsumed {
		t.Fatalf("expected consumed, got %s", got)
	}

	u.ResetOTP = "digest"
	u.ResetOTPExpiresAt = &exp
	if got := u.ResetState(now); got != OTPStatePending {
		t.Fatalf("expected reset pending, got %s", got)
	}
	if u.HasPassword() {
		t.Fatalf("expected no password")
	}
}
