package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// VerifyAPI son las llamadas al backend del flujo de verificación de email.
type VerifyAPI interface {
	OTPStatus(ctx context.Context) (OTPStatus, error)
	SendVerifyOTP(ctx context.Context) (time.Time, error)
	VerifyAccount(ctx context.Context, otp string) error
}

// VerifyFlow controla la pantalla de verificación de email. No persiste nada:
// al montar se reconcilia contra /otp-status.
type VerifyFlow struct {
	mu       sync.Mutex
	logger   *zap.Logger
	api      VerifyAPI
	timer    *Timer
	input    *OTPInput
	loading  bool
	verified bool
}

func NewVerifyFlow(logger *zap.Logger, api VerifyAPI, clock Clock) *VerifyFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerifyFlow{
		logger: logger,
		api:    api,
		timer:  NewTimer(clock),
		input:  NewOTPInput(DefaultOTPLength),
	}
}

// Mount consulta el estado del OTP en el servidor. Devuelve ErrAlreadyVerified
// si la cuenta ya está verificada; si hay un código activo retoma el timer.
func (f *VerifyFlow) Mount(ctx context.Context) error {
	status, err := f.api.OTPStatus(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.verified = status.IsVerified
	f.mu.Unlock()

	switch {
	case status.IsVerified:
		f.timer.Stop()
		return ErrAlreadyVerified
	case status.HasActiveOTP && !status.ExpiresAt.IsZero():
		f.logger.Debug("resuming verify otp timer", zap.Time("expires_at", status.ExpiresAt))
		f.timer.Start(status.ExpiresAt)
	default:
		f.timer.Stop()
	}
	return nil
}

// SendCode emite un código nuevo, limpia el input y reinicia el timer.
func (f *VerifyFlow) SendCode(ctx context.Context) error {
	if err := f.begin(); err != nil {
		return err
	}
	expiresAt, err := f.api.SendVerifyOTP(ctx)
	f.end()
	if err != nil {
		return err
	}
	f.input.Reset()
	f.timer.Start(expiresAt)
	return nil
}

// Submit envía el código del input. Si falla, el input se limpia.
func (f *VerifyFlow) Submit(ctx context.Context) error {
	if !f.input.Complete() {
		return ErrIncompleteCode
	}
	if err := f.begin(); err != nil {
		return err
	}
	err := f.api.VerifyAccount(ctx, f.input.Code())
	f.end()
	if err != nil {
		f.input.Reset()
		return err
	}

	f.mu.Lock()
	f.verified = true
	f.mu.Unlock()
	f.timer.Stop()
	return nil
}

func (f *VerifyFlow) Close() {
	f.timer.Close()
}

func (f *VerifyFlow) Verified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verified
}

func (f *VerifyFlow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *VerifyFlow) Timer() TimerState {
	return f.timer.State()
}

func (f *VerifyFlow) OnTimer(fn func(TimerState)) {
	f.timer.OnChange(fn)
}

func (f *VerifyFlow) Input() *OTPInput {
	return f.input
}

func (f *VerifyFlow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	if f.verified {
		return ErrAlreadyVerified
	}
	f.loading = true
	return nil
}

func (f *VerifyFlow) end() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}
