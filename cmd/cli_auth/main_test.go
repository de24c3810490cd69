package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"otp-auth/internal/client"
)

func TestExpiryNotice(t *testing.T) {
	var out bytes.Buffer
	notify := expiryNotice(&out)
	first := time.Date(2024, 3, 1, 10, 10, 0, 0, time.UTC)

	notify(client.TimerState{TimeLeft: 30, ExpirationTime: &first})
	notify(client.TimerState{IsExpired: true})
	if out.Len() != 0 {
		t.Fatalf("expected no notice before expiry, got %q", out.String())
	}

	notify(client.TimerState{IsExpired: true, ExpirationTime: &first})
	notify(client.TimerState{IsExpired: true, ExpirationTime: &first})
	if got := strings.Count(out.String(), "El codigo expiro"); got != 1 {
		t.Fatalf("expected one notice, got %d (%q)", got, out.String())
	}

	second := first.Add(10 * time.Minute)
	notify(client.TimerState{IsExpired: true, ExpirationTime: &second})
	if got := strings.Count(out.String(), "El codigo expiro"); got != 2 {
		t.Fatalf("expected notice for resent code, got %d", got)
	}
}
