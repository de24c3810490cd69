package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

type sentMail struct {
	kind      string
	to        string
	code      string
	expiresAt time.Time
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockEmailSender) record(mail sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, to, code string, expiresAt time.Time) error {
	return m.record(sentMail{kind: "verify", to: to, code: code, expiresAt: expiresAt})
}

func (m *mockEmailSender) SendResetOTP(_ context.Context, to, code string, expiresAt time.Time) error {
	return m.record(sentMail{kind: "reset", to: to, code: code, expiresAt: expiresAt})
}

func (m *mockEmailSender) SendWelcome(_ context.Context, to, _ string) error {
	return m.record(sentMail{kind: "welcome", to: to})
}

func (m *mockEmailSender) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func (m *mockEmailSender) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, mail := range m.sent {
		if mail.kind == kind {
			n++
		}
	}
	return n
}

var errSMTPDown = errors.New("smtp down")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
