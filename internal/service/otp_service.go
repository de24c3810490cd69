package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"otp-auth/internal/domain"
	"otp-auth/internal/email"
	"otp-auth/internal/repository"
)

// OTPService orquesta la emisión, validación y consumo de OTPs de los tracks
// de verificación y de reseteo.
//
// La consumición siempre es una actualización condicional única en el
// repositorio: si dos requests compiten por el mismo código, solo una gana.
// Cuando el envío de correo falla después de persistir un código, el código
// se borra de forma condicional (solo si sigue siendo el mismo digest) y se
// devuelve ErrMailDeliveryFailed.
type OTPService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	codec       *OTPCodec
}

func NewOTPService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, codec *OTPCodec) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		codec:       codec,
	}
}

// IssueVerifyOTP genera un código de verificación, lo persiste (sobrescribiendo
// cualquier código previo) y lo envía por correo. Devuelve solo la expiración.
func (s *OTPService) IssueVerifyOTP(ctx context.Context, userID string) (time.Time, error) {
	user, err := s.loadByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if user.IsAccountVerified {
		return time.Time{}, ErrAlreadyVerified
	}

	otp, err := s.codec.Generate()
	if err != nil {
		return time.Time{}, err
	}
	digest := s.codec.Digest(user.ID, domain.OTPTrackVerify, otp.Code)

	ok, err := s.users.SetVerifyOTP(ctx, user.ID, digest, otp.ExpiresAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("store verify otp: %w", err)
	}
	if !ok {
		// La cuenta se verificó entre la lectura y la escritura.
		return time.Time{}, ErrAlreadyVerified
	}

	if err := s.emailSender.SendVerificationOTP(ctx, user.Email, otp.Code, otp.ExpiresAt); err != nil {
		s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("user_id", user.ID))
		if _, clearErr := s.users.ClearVerifyOTP(ctx, user.ID, digest); clearErr != nil {
			s.logger.Error("rollback verify otp failed", zap.Error(clearErr), zap.String("user_id", user.ID))
		}
		return time.Time{}, ErrMailDeliveryFailed
	}

	s.logger.Info("verify otp issued", zap.String("user_id", user.ID), zap.Time("expires_at", otp.ExpiresAt))
	return otp.ExpiresAt, nil
}

// ValidateAndConsumeVerifyOTP verifica la cuenta si el código coincide y no expiró.
func (s *OTPService) ValidateAndConsumeVerifyOTP(ctx context.Context, userID, code string) error {
	user, err := s.loadByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAccountVerified {
		return ErrAlreadyVerified
	}
	code = strings.TrimSpace(code)
	if !isValidOTPCode(code) {
		return ErrInvalidCode
	}

	now := s.codec.Now()
	digest := s.codec.Digest(user.ID, domain.OTPTrackVerify, code)
	ok, err := s.users.ConsumeVerifyOTP(ctx, user.ID, digest, now)
	if err != nil {
		return fmt.Errorf("consume verify otp: %w", err)
	}
	if ok {
		s.logger.Info("account verified", zap.String("user_id", user.ID))
		return nil
	}

	// Nada cambió: releer para explicar el rechazo.
	current, err := s.loadByID(ctx, userID)
	if err != nil {
		return err
	}
	if current.IsAccountVerified {
		return ErrAlreadyVerified
	}
	if err := s.classify(current.ID, domain.OTPTrackVerify, code, current.VerifyOTP, current.VerifyOTPExpiresAt, now); err != nil {
		return err
	}
	return ErrInvalidCode
}

// GetOTPStatus permite al cliente retomar el temporizador tras recargar sin reemitir código.
func (s *OTPService) GetOTPStatus(ctx context.Context, userID string) (domain.OTPStatus, error) {
	user, err := s.loadByID(ctx, userID)
	if err != nil {
		return domain.OTPStatus{}, err
	}
	status := domain.OTPStatus{IsVerified: user.IsAccountVerified}
	if user.VerifyState(s.codec.Now()) == domain.OTPStatePending {
		status.HasActiveOTP = true
		expiresAt := *user.VerifyOTPExpiresAt
		status.ExpiresAt = &expiresAt
	}
	return status, nil
}

// IssueResetOTP emite un código de reseteo. Para emails desconocidos no envía
// nada pero devuelve una expiración sintética, de modo que la respuesta no
// revela si la cuenta existe.
func (s *OTPService) IssueResetOTP(ctx context.Context, emailAddr string) (time.Time, error) {
	emailAddr = normalizeEmail(emailAddr)
	if !isValidEmail(emailAddr) {
		return time.Time{}, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("reset otp requested for unknown email")
			return s.codec.Now().Add(s.codec.TTL()), nil
		}
		return time.Time{}, fmt.Errorf("load user: %w", err)
	}

	otp, err := s.codec.Generate()
	if err != nil {
		return time.Time{}, err
	}
	digest := s.codec.Digest(user.ID, domain.OTPTrackReset, otp.Code)
	if err := s.users.SetResetOTP(ctx, user.ID, digest, otp.ExpiresAt); err != nil {
		return time.Time{}, fmt.Errorf("store reset otp: %w", err)
	}

	if err := s.emailSender.SendResetOTP(ctx, user.Email, otp.Code, otp.ExpiresAt); err != nil {
		s.logger.Warn("send reset otp failed", zap.Error(err), zap.String("user_id", user.ID))
		if _, clearErr := s.users.ClearResetOTP(ctx, user.ID, digest); clearErr != nil {
			s.logger.Error("rollback reset otp failed", zap.Error(clearErr), zap.String("user_id", user.ID))
		}
		return time.Time{}, ErrMailDeliveryFailed
	}

	s.logger.Info("reset otp issued", zap.String("user_id", user.ID), zap.Time("expires_at", otp.ExpiresAt))
	return otp.ExpiresAt, nil
}

// ValidateResetOTP confirma que el código es válido sin consumirlo: el paso
// final (FinalizeReset) vuelve a autorizar contra el mismo código.
func (s *OTPService) ValidateResetOTP(ctx context.Context, emailAddr, code string) error {
	_, err := s.checkReset(ctx, emailAddr, code)
	return err
}

// FinalizeReset revalida el código, guarda la nueva contraseña y consume el código.
func (s *OTPService) FinalizeReset(ctx context.Context, emailAddr, code, newPassword string) error {
	user, err := s.checkReset(ctx, emailAddr, code)
	if err != nil {
		return err
	}
	if err := domain.CheckPasswordStrength(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code = strings.TrimSpace(code)
	now := s.codec.Now()
	digest := s.codec.Digest(user.ID, domain.OTPTrackReset, code)
	ok, err := s.users.ConsumeResetOTP(ctx, user.ID, digest, now, passwordHash)
	if err != nil {
		return fmt.Errorf("consume reset otp: %w", err)
	}
	if !ok {
		// Otro request consumió o reemplazó el código entre la validación y la escritura.
		if _, err := s.checkReset(ctx, emailAddr, code); err != nil {
			return err
		}
		return ErrInvalidCode
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *OTPService) checkReset(ctx context.Context, emailAddr, code string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if !isValidEmail(emailAddr) {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrInvalidCode
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCode
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := s.classify(user.ID, domain.OTPTrackReset, code, user.ResetOTP, user.ResetOTPExpiresAt, s.codec.Now()); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// classify aplica el orden de rechazo: primero el código, luego la expiración.
func (s *OTPService) classify(userID string, track domain.OTPTrack, code, stored string, expiresAt *time.Time, now time.Time) error {
	if !s.codec.Matches(userID, track, code, stored) {
		return ErrInvalidCode
	}
	if expiresAt == nil || now.After(*expiresAt) {
		return ErrCodeExpired
	}
	return nil
}

func (s *OTPService) loadByID(ctx context.Context, userID string) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
