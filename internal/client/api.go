package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIError es una respuesta de error del servidor. Message es el campo
// "error" del body, tal cual lo devolvió el servidor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// User es la vista pública de la cuenta que devuelve el servidor.
type User struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	IsAccountVerified bool   `json:"isAccountVerified"`
	AuthProvider      string `json:"authProvider"`
	ProfilePicture    string `json:"profilePicture,omitempty"`
}

type UserData struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	IsAccountVerified bool   `json:"isAccountVerified"`
	AuthProvider      string `json:"authProvider"`
	ProfilePicture    string `json:"profilePicture"`
}

// OTPStatus refleja GET /otp-status. ExpiresAt es cero si no hay OTP activo.
type OTPStatus struct {
	IsVerified   bool
	HasActiveOTP bool
	ExpiresAt    time.Time
}

// API habla con el backend de autenticación. La cookie de sesión vive en el
// jar del http.Client propio, así que una instancia equivale a un navegador.
type API struct {
	baseURL string
	client  *http.Client
}

// NewAPI construye el cliente con un cookie jar nuevo. Si httpClient no es nil
// se usa tal cual (debe traer su propio jar).
func NewAPI(baseURL string, httpClient *http.Client) (*API, error) {
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: 15 * time.Second, Jar: jar}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}, nil
}

func (a *API) Register(ctx context.Context, name, email, password string) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := a.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	return resp.User, err
}

func (a *API) Login(ctx context.Context, email, password string) error {
	return a.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// IsAuth devuelve false (sin error) cuando el servidor responde 401.
func (a *API) IsAuth(ctx context.Context) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/auth/is-auth", nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return false, nil
		}
		return false, err
	}
	return resp.Authenticated, nil
}

func (a *API) UserData(ctx context.Context) (UserData, error) {
	var resp struct {
		UserData UserData `json:"userData"`
	}
	err := a.do(ctx, http.MethodGet, "/api/user/data", nil, &resp)
	return resp.UserData, err
}

func (a *API) SendVerifyOTP(ctx context.Context) (time.Time, error) {
	var resp expiryResponse
	if err := a.do(ctx, http.MethodPost, "/api/auth/send-verify-otp", nil, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.expiresAt(), nil
}

func (a *API) OTPStatus(ctx context.Context) (OTPStatus, error) {
	var resp struct {
		IsVerified   bool   `json:"isVerified"`
		HasActiveOTP bool   `json:"hasActiveOtp"`
		ExpiresAt    *int64 `json:"expiresAt"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/auth/otp-status", nil, &resp); err != nil {
		return OTPStatus{}, err
	}
	status := OTPStatus{IsVerified: resp.IsVerified, HasActiveOTP: resp.HasActiveOTP}
	if resp.ExpiresAt != nil {
		status.ExpiresAt = time.UnixMilli(*resp.ExpiresAt)
	}
	return status, nil
}

func (a *API) VerifyAccount(ctx context.Context, otp string) error {
	return a.do(ctx, http.MethodPost, "/api/auth/verify-account", map[string]string{"otp": otp}, nil)
}

func (a *API) SendResetOTP(ctx context.Context, email string) (time.Time, error) {
	var resp expiryResponse
	if err := a.do(ctx, http.MethodPost, "/api/auth/send-reset-otp", map[string]string{"email": email}, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.expiresAt(), nil
}

func (a *API) ValidateResetOTP(ctx context.Context, email, otp string) error {
	return a.do(ctx, http.MethodPost, "/api/auth/validate-reset-otp", map[string]string{
		"email": email,
		"otp":   otp,
	}, nil)
}

func (a *API) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return a.do(ctx, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"email":       email,
		"otp":         otp,
		"newPassword": newPassword,
	}, nil)
}

func (a *API) GoogleAuthURL(ctx context.Context) (string, error) {
	var resp struct {
		AuthURL string `json:"authUrl"`
	}
	err := a.do(ctx, http.MethodGet, "/api/auth/google/url", nil, &resp)
	return resp.AuthURL, err
}

type expiryResponse struct {
	ExpiresAt int64 `json:"expiresAt"`
}

func (r expiryResponse) expiresAt() time.Time {
	return time.UnixMilli(r.ExpiresAt)
}

func (a *API) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errBody) != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// ErrorMessage devuelve el texto a mostrar al usuario para un error de la API.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
