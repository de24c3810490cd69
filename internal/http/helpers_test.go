package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/repository"
	"otp-auth/internal/service"
)

type mockEmailSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (m *mockEmailSender) store(kind, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[kind+"|"+to] = code
	return nil
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, to, code string, _ time.Time) error {
	return m.store("verify", to, code)
}

func (m *mockEmailSender) SendResetOTP(_ context.Context, to, code string, _ time.Time) error {
	return m.store("reset", to, code)
}

func (m *mockEmailSender) SendWelcome(_ context.Context, to, _ string) error {
	return m.store("welcome", to, "")
}

func (m *mockEmailSender) code(kind, to string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[kind+"|"+to]
	return code, ok
}

func (m *mockEmailSender) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type fakeGoogle struct {
	identity service.GoogleIdentity
	err      error
}

func (f *fakeGoogle) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (service.GoogleIdentity, error) {
	if code != "good-code" {
		return service.GoogleIdentity{}, errors.New("exchange failed")
	}
	return f.identity, f.err
}

func (f *fakeGoogle) VerifyIDToken(_ context.Context, token string) (service.GoogleIdentity, error) {
	if token != "good-token" {
		return service.GoogleIdentity{}, service.ErrOAuthInvalid
	}
	return f.identity, f.err
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
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

type apiFixture struct {
	router *gin.Engine
	users  *repository.InMemoryUserRepository
	sender *mockEmailSender
	clock  *testClock
	google *fakeGoogle
}

type fixtureOptions struct {
	disableGoogle bool
	otpLimiter    service.OTPRateLimiter
}

func newAPIFixture(t *testing.T, opts fixtureOptions) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	clock := &testClock{now: time.Now().UTC().Truncate(time.Millisecond)}
	users := repository.NewInMemoryUserRepository()
	sender := &mockEmailSender{}
	codec := service.NewOTPCodec("pepper", service.DefaultOTPTTL).WithClock(clock.Now)
	jwtSvc := service.NewJWTServiceWithStore("secret", service.NewMemorySessionStore())
	userSvc := service.NewUserService(logger, users, sender)
	otpSvc := service.NewOTPService(logger, users, sender, codec)
	cookies := CookieConfig{}

	google := &fakeGoogle{identity: service.GoogleIdentity{
		GoogleID:      "g-1",
		Email:         "gina@gmail.com",
		Name:          "Gina",
		EmailVerified: true,
	}}
	var verifier service.GoogleVerifier = google
	if opts.disableGoogle {
		verifier = nil
	}

	router := NewRouter(
		logger,
		NewAuthHandler(logger, userSvc, jwtSvc, cookies, time.Hour),
		NewOTPHandler(logger, otpSvc),
		NewOAuthHandler(logger, verifier, userSvc, jwtSvc, cookies, 7*24*time.Hour, "http://localhost:5173"),
		jwtSvc,
		RouterOptions{
			CORSOrigins: []string{"http://localhost:5173"},
			OTPLimiter:  opts.otpLimiter,
		},
	)
	return &apiFixture{router: router, users: users, sender: sender, clock: clock, google: google}
}

func (f *apiFixture) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// register crea un usuario y devuelve su cookie de sesión.
func (f *apiFixture) register(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    email,
		"password": "Secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	cookie := findCookie(rec, sessionCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected session cookie on register")
	}
	return cookie
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["error"]; got != msg {
		t.Fatalf("expected error %q, got %v", msg, got)
	}
}
