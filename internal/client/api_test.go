package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"otp-auth/internal/client"
	authhttp "otp-auth/internal/http"
	"otp-auth/internal/repository"
	"otp-auth/internal/service"
)

// captureSender guarda el último código enviado por destinatario.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *captureSender) put(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[to] = code
	return nil
}

func (s *captureSender) SendVerificationOTP(_ context.Context, to, code string, _ time.Time) error {
	return s.put(to, code)
}

func (s *captureSender) SendResetOTP(_ context.Context, to, code string, _ time.Time) error {
	return s.put(to, code)
}

func (s *captureSender) SendWelcome(context.Context, string, string) error {
	return nil
}

func (s *captureSender) last(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[to]
}

func newTestServer(t *testing.T) (*httptest.Server, *captureSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := repository.NewInMemoryUserRepository()
	sender := &captureSender{}
	codec := service.NewOTPCodec("pepper", service.DefaultOTPTTL)
	jwtSvc := service.NewJWTService("secret")
	userSvc := service.NewUserService(logger, users, sender)
	otpSvc := service.NewOTPService(logger, users, sender, codec)
	cookies := authhttp.CookieConfig{}

	router := authhttp.NewRouter(
		logger,
		authhttp.NewAuthHandler(logger, userSvc, jwtSvc, cookies, time.Hour),
		authhttp.NewOTPHandler(logger, otpSvc),
		authhttp.NewOAuthHandler(logger, nil, userSvc, jwtSvc, cookies, 7*24*time.Hour, "http://localhost:5173"),
		jwtSvc,
		authhttp.RouterOptions{},
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, sender
}

func newTestAPI(t *testing.T, baseURL string) *client.API {
	t.Helper()
	api, err := client.NewAPI(baseURL, nil)
	require.NoError(t, err)
	return api
}

func TestAPISessionAndVerifyFlow(t *testing.T) {
	srv, sender := newTestServer(t)
	api := newTestAPI(t, srv.URL)
	ctx := context.Background()

	ok, err := api.IsAuth(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	user, err := api.Register(ctx, "Ana", "ana@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", user.Email)
	require.False(t, user.IsAccountVerified)

	ok, err = api.IsAuth(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	flow := client.NewVerifyFlow(nil, api, client.SystemClock{})
	defer flow.Close()
	require.NoError(t, flow.Mount(ctx))
	require.NoError(t, flow.SendCode(ctx))
	require.Greater(t, flow.Timer().TimeLeft, 590)

	status, err := api.OTPStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.HasActiveOTP)
	require.False(t, status.ExpiresAt.IsZero())

	flow.Input().Paste(sender.last("ana@example.com"))
	require.NoError(t, flow.Submit(ctx))
	require.True(t, flow.Verified())

	data, err := api.UserData(ctx)
	require.NoError(t, err)
	require.True(t, data.IsAccountVerified)
	require.Equal(t, "email", data.AuthProvider)

	_, err = api.SendVerifyOTP(ctx)
	require.Equal(t, "Account already verified", client.ErrorMessage(err))

	require.NoError(t, api.Logout(ctx))
	ok, err = api.IsAuth(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = api.UserData(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestAPIResetFlowAgainstServer(t *testing.T) {
	srv, sender := newTestServer(t)
	ctx := context.Background()

	owner := newTestAPI(t, srv.URL)
	_, err := owner.Register(ctx, "Ana", "ana@example.com", "Secret123")
	require.NoError(t, err)

	api := newTestAPI(t, srv.URL)
	store := client.NewMemoryStateStore()
	flow := client.NewResetFlow(nil, api, store, client.SystemClock{})
	defer flow.Close()
	require.NoError(t, flow.Mount())

	require.NoError(t, flow.SubmitEmail(ctx, "ana@example.com"))
	require.Equal(t, client.StepVerifyOTP, flow.Step())

	wrong := "000000"
	if sender.last("ana@example.com") == wrong {
		wrong = "111111"
	}
	flow.Input().Paste(wrong)
	err = flow.SubmitOTP(ctx)
	require.Equal(t, "Invalid OTP", client.ErrorMessage(err))
	require.Equal(t, client.StepVerifyOTP, flow.Step())

	flow.Input().Paste(sender.last("ana@example.com"))
	require.NoError(t, flow.SubmitOTP(ctx))
	require.Equal(t, client.StepNewPassword, flow.Step())

	require.NoError(t, flow.SubmitNewPassword(ctx, "NewSecret9", "NewSecret9"))
	require.True(t, flow.Done())
	require.False(t, store.Has(client.ResetStateKey))

	err = api.Login(ctx, "ana@example.com", "Secret123")
	require.Equal(t, "Invalid email or password", client.ErrorMessage(err))
	require.NoError(t, api.Login(ctx, "ana@example.com", "NewSecret9"))
}

func TestAPIErrorsCarryServerMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	api := newTestAPI(t, srv.URL)
	ctx := context.Background()

	_, err := api.Register(ctx, "Ana", "ana@example.com", "short")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.NotEmpty(t, apiErr.Message)

	_, err = api.GoogleAuthURL(ctx)
	require.Equal(t, "OAuth configuration error", client.ErrorMessage(err))
	require.Equal(t, "context deadline exceeded", client.ErrorMessage(context.DeadlineExceeded))
	require.Empty(t, client.ErrorMessage(nil))
}
