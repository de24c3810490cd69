package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"otp-auth/internal/domain"
	"otp-auth/internal/email"
	"otp-auth/internal/repository"
)

const maxNameLength = 100

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	now         func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register crea una cuenta email/contraseña sin verificar. El correo de
// bienvenida no es bloqueante: si falla solo se registra en el log.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	name := strings.TrimSpace(input.Name)
	emailAddr := normalizeEmail(input.Email)
	if name == "" || input.Password == "" {
		return domain.User{}, ErrValidation
	}
	if !isValidEmail(emailAddr) {
		return domain.User{}, ErrInvalidEmail
	}
	if err := domain.CheckPasswordStrength(input.Password); err != nil {
		return domain.User{}, err
	}

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         truncate(name, maxNameLength),
		Email:        emailAddr,
		PasswordHash: passwordHash,
		AuthProvider: domain.AuthProviderEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpsertGoogleUser inicia sesión o registra a partir de una identidad de Google
// ya verificada. El email verificado por Google implica cuenta verificada.
func (s *UserService) UpsertGoogleUser(ctx context.Context, identity GoogleIdentity) (domain.User, bool, error) {
	googleID := strings.TrimSpace(identity.GoogleID)
	emailAddr := normalizeEmail(identity.Email)
	name := truncate(strings.TrimSpace(identity.Name), maxNameLength)
	picture := strings.TrimSpace(identity.Picture)

	if googleID == "" || !isValidEmail(emailAddr) {
		return domain.User{}, false, ErrOAuthInvalid
	}
	if !identity.EmailVerified {
		return domain.User{}, false, ErrOAuthEmailUnverified
	}

	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, fmt.Errorf("load user: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		if err := s.users.LinkGoogle(ctx, existing.ID, googleID, picture); err != nil {
			return domain.User{}, false, fmt.Errorf("link google: %w", err)
		}
		linked, err := s.users.GetByID(ctx, existing.ID)
		if err != nil {
			return domain.User{}, false, fmt.Errorf("load user: %w", err)
		}
		return linked, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, fmt.Errorf("load user: %w", err)
	}

	if name == "" {
		name = emailAddr[:strings.Index(emailAddr, "@")]
	}
	now := s.now()
	user = domain.User{
		ID:                uuid.NewString(),
		Name:              name,
		Email:             emailAddr,
		GoogleID:          googleID,
		ProfilePicture:    picture,
		AuthProvider:      domain.AuthProviderGoogle,
		IsAccountVerified: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, false, fmt.Errorf("create user: %w", err)
	}

	s.sendWelcome(ctx, user)
	return user, true, nil
}

func (s *UserService) sendWelcome(ctx context.Context, user domain.User) {
	if s.emailSender == nil {
		return
	}
	if err := s.emailSender.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("user_id", user.ID))
	}
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
