package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"otp-auth/internal/domain"
)

// ResetStep es el paso visible del flujo de reseteo.
type ResetStep string

const (
	StepEmail       ResetStep = "email"
	StepVerifyOTP   ResetStep = "verify-otp"
	StepNewPassword ResetStep = "new-password"
)

// ResetStateKey es la clave bajo la que se persiste el flujo.
const ResetStateKey = "reset-password"

// ResetState es la tupla persistida. ExpiresAt va en milisegundos Unix, 0 si no hay.
// OTP es el código ya validado que se reenvía en el último paso.
type ResetState struct {
	Step      ResetStep `json:"step"`
	Email     string    `json:"email"`
	OTP       string    `json:"otp"`
	ExpiresAt int64     `json:"expiresAt"`
}

// ResetAPI son las llamadas al backend que usa el flujo de reseteo.
type ResetAPI interface {
	SendResetOTP(ctx context.Context, email string) (time.Time, error)
	ValidateResetOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// ResetFlow es la máquina de estados email -> verify-otp -> new-password.
// Persiste el estado completo en cada cambio y rechaza envíos concurrentes con ErrBusy.
type ResetFlow struct {
	mu       sync.Mutex
	logger   *zap.Logger
	api      ResetAPI
	store    StateStore
	clock    Clock
	timer    *Timer
	input    *OTPInput
	state    ResetState
	loading  bool
	done     bool
	onChange func(ResetState)
	onTick   func(TimerState)
}

func NewResetFlow(logger *zap.Logger, api ResetAPI, store StateStore, clock Clock) *ResetFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	f := &ResetFlow{
		logger: logger,
		api:    api,
		store:  store,
		clock:  clock,
		timer:  NewTimer(clock),
		input:  NewOTPInput(DefaultOTPLength),
		state:  ResetState{Step: StepEmail},
	}
	f.timer.OnChange(f.onTimer)
	return f
}

// OnChange registra un callback para cambios de paso (por ejemplo la expiración).
func (f *ResetFlow) OnChange(fn func(ResetState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

// OnTimer registra un callback para cada tick de la cuenta regresiva.
func (f *ResetFlow) OnTimer(fn func(TimerState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTick = fn
}

// Mount restaura el estado persistido. Si el código cacheado ya expiró en
// verify-otp, vuelve a email y borra lo guardado.
func (f *ResetFlow) Mount() error {
	var saved ResetState
	ok, err := f.store.Load(ResetStateKey, &saved)
	if err != nil {
		f.logger.Warn("load reset state failed", zap.Error(err))
		ok = false
	}

	f.mu.Lock()
	f.done = false
	if !ok || !saved.valid() {
		f.state = ResetState{Step: StepEmail}
		f.mu.Unlock()
		f.timer.Stop()
		if ok {
			return f.store.Clear(ResetStateKey)
		}
		return nil
	}

	if saved.Step == StepVerifyOTP && !f.clock.Now().Before(time.UnixMilli(saved.ExpiresAt)) {
		f.logger.Debug("cached reset otp expired on mount")
		f.state = ResetState{Step: StepEmail}
		f.mu.Unlock()
		f.timer.Stop()
		return f.store.Clear(ResetStateKey)
	}

	f.state = saved
	f.mu.Unlock()

	if saved.Step == StepVerifyOTP {
		f.timer.Start(time.UnixMilli(saved.ExpiresAt))
	} else {
		f.timer.Stop()
	}
	return nil
}

// SubmitEmail pide un código de reseteo y pasa a verify-otp.
func (f *ResetFlow) SubmitEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if err := f.begin(StepEmail); err != nil {
		return err
	}
	expiresAt, err := f.api.SendResetOTP(ctx, email)
	if err != nil {
		f.end()
		return err
	}

	f.commit(ResetState{Step: StepVerifyOTP, Email: email, ExpiresAt: expiresAt.UnixMilli()})
	f.input.Reset()
	f.timer.Start(expiresAt)
	return nil
}

// SubmitOTP valida el código del input. Si falla, el input se limpia.
func (f *ResetFlow) SubmitOTP(ctx context.Context) error {
	if !f.input.Complete() {
		return ErrIncompleteCode
	}
	if err := f.begin(StepVerifyOTP); err != nil {
		return err
	}
	f.mu.Lock()
	current := f.state
	f.mu.Unlock()

	code := f.input.Code()
	if err := f.api.ValidateResetOTP(ctx, current.Email, code); err != nil {
		f.end()
		f.input.Reset()
		return err
	}

	current.Step = StepNewPassword
	current.OTP = code
	f.commit(current)
	f.timer.Stop()
	return nil
}

// Resend emite un código nuevo para el mismo email, reinicia el timer y limpia el input.
func (f *ResetFlow) Resend(ctx context.Context) error {
	if err := f.begin(StepVerifyOTP); err != nil {
		return err
	}
	f.mu.Lock()
	current := f.state
	f.mu.Unlock()

	expiresAt, err := f.api.SendResetOTP(ctx, current.Email)
	if err != nil {
		f.end()
		return err
	}

	current.ExpiresAt = expiresAt.UnixMilli()
	f.commit(current)
	f.input.Reset()
	f.timer.Start(expiresAt)
	return nil
}

// SubmitNewPassword confirma la contraseña y finaliza el reseteo con el código cacheado.
// La igualdad con confirm es solo una ayuda al usuario; la política la valida el servidor.
// Si el servidor rechaza el código cacheado (vencido o ya usado), vuelve a email.
func (f *ResetFlow) SubmitNewPassword(ctx context.Context, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := domain.CheckPasswordStrength(password); err != nil {
		return err
	}
	if err := f.begin(StepNewPassword); err != nil {
		return err
	}
	f.mu.Lock()
	current := f.state
	f.mu.Unlock()

	if err := f.api.ResetPassword(ctx, current.Email, current.OTP, password); err != nil {
		if codeRejected(err) {
			f.logger.Debug("cached reset otp rejected, returning to email step", zap.Error(err))
			f.restart()
			return err
		}
		f.end()
		return err
	}

	f.mu.Lock()
	f.state = ResetState{Step: StepEmail}
	f.loading = false
	f.done = true
	fn := f.onChange
	f.mu.Unlock()

	if err := f.store.Clear(ResetStateKey); err != nil {
		f.logger.Warn("clear reset state failed", zap.Error(err))
	}
	f.input.Reset()
	if fn != nil {
		fn(ResetState{Step: StepEmail})
	}
	return nil
}

// restart vuelve a email, limpia lo persistido y avisa del cambio.
func (f *ResetFlow) restart() {
	f.mu.Lock()
	f.state = ResetState{Step: StepEmail}
	f.loading = false
	fn := f.onChange
	f.mu.Unlock()

	f.timer.Stop()
	f.input.Reset()
	if err := f.store.Clear(ResetStateKey); err != nil {
		f.logger.Warn("clear reset state failed", zap.Error(err))
	}
	if fn != nil {
		fn(ResetState{Step: StepEmail})
	}
}

// Cancel abandona el flujo y borra el estado persistido.
func (f *ResetFlow) Cancel() error {
	f.mu.Lock()
	f.state = ResetState{Step: StepEmail}
	f.done = false
	f.mu.Unlock()

	f.timer.Stop()
	f.input.Reset()
	return f.store.Clear(ResetStateKey)
}

// Close detiene el timer al desmontar la vista. El estado persistido se conserva.
func (f *ResetFlow) Close() {
	f.timer.Close()
}

func (f *ResetFlow) State() ResetState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *ResetFlow) Step() ResetStep {
	return f.State().Step
}

func (f *ResetFlow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Done indica que el reseteo terminó y el llamador debe ir al login.
func (f *ResetFlow) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

func (f *ResetFlow) Timer() TimerState {
	return f.timer.State()
}

func (f *ResetFlow) Input() *OTPInput {
	return f.input
}

// begin toma el flag de carga si el flujo está en el paso esperado.
func (f *ResetFlow) begin(step ResetStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return ErrBusy
	}
	if f.state.Step != step {
		return ErrWrongStep
	}
	f.loading = true
	return nil
}

func (f *ResetFlow) end() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

// commit aplica el nuevo estado, lo persiste y libera el flag de carga.
// Un fallo al persistir solo se loguea: el flujo en memoria sigue siendo válido
// y lo único que se pierde es poder retomarlo tras un reinicio.
func (f *ResetFlow) commit(next ResetState) {
	f.mu.Lock()
	f.state = next
	f.loading = false
	fn := f.onChange
	f.mu.Unlock()

	if err := f.store.Save(ResetStateKey, next); err != nil {
		f.logger.Warn("save reset state failed", zap.Error(err))
	}
	if fn != nil {
		fn(next)
	}
}

// onTimer revierte a email cuando el código vence mientras se espera el OTP.
func (f *ResetFlow) onTimer(s TimerState) {
	f.mu.Lock()
	tick := f.onTick
	f.mu.Unlock()
	if tick != nil {
		tick(s)
	}
	if !s.IsExpired || s.ExpirationTime == nil {
		return
	}

	f.mu.Lock()
	if f.state.Step != StepVerifyOTP || f.state.ExpiresAt != s.ExpirationTime.UnixMilli() {
		f.mu.Unlock()
		return
	}
	f.logger.Debug("reset otp expired, returning to email step")
	f.state = ResetState{Step: StepEmail}
	fn := f.onChange
	f.mu.Unlock()

	if err := f.store.Clear(ResetStateKey); err != nil {
		f.logger.Warn("clear reset state failed", zap.Error(err))
	}
	f.input.Reset()
	if fn != nil {
		fn(ResetState{Step: StepEmail})
	}
}

func (s ResetState) valid() bool {
	switch s.Step {
	case StepEmail:
		return true
	case StepVerifyOTP:
		return s.Email != "" && s.ExpiresAt > 0
	case StepNewPassword:
		return s.Email != "" && s.OTP != ""
	default:
		return false
	}
}

// codeRejected indica que el servidor ya no acepta el código cacheado.
func codeRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Message == "OTP expired" || apiErr.Message == "Invalid OTP"
}
