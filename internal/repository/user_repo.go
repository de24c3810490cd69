package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"otp-auth/internal/domain"
)

// ErrDuplicate indica que se violó una restricción única (email o google_id).
var ErrDuplicate = errors.New("duplicate record")

// UserRepository define el contrato de persistencia para usuarios.
//
// Los métodos Consume* y Clear* son actualizaciones condicionales de una sola
// sentencia: devuelven false cuando ninguna fila cumplió la condición.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (domain.User, error)
	LinkGoogle(ctx context.Context, id, googleID, picture string) error

	SetVerifyOTP(ctx context.Context, id, digest string, expiresAt time.Time) (bool, error)
	ClearVerifyOTP(ctx context.Context, id, digest string) (bool, error)
	ConsumeVerifyOTP(ctx context.Context, id, digest string, now time.Time) (bool, error)

	SetResetOTP(ctx context.Context, id, digest string, expiresAt time.Time) error
	ClearResetOTP(ctx context.Context, id, digest string) (bool, error)
	ConsumeResetOTP(ctx context.Context, id, digest string, now time.Time, passwordHash string) (bool, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''),
	COALESCE(profile_picture, ''), auth_provider, is_account_verified,
	COALESCE(verify_otp, ''), verify_otp_expires_at,
	COALESCE(reset_otp, ''), reset_otp_expires_at,
	created_at, updated_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (
			id, name, email, password_hash, google_id, profile_picture,
			auth_provider, is_account_verified, created_at, updated_at
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.ProfilePicture,
		string(user.AuthProvider),
		user.IsAccountVerified,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var (
		u        domain.User
		provider string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.ProfilePicture,
		&provider,
		&u.IsAccountVerified,
		&u.VerifyOTP,
		&u.VerifyOTPExpiresAt,
		&u.ResetOTP,
		&u.ResetOTPExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	u.AuthProvider = domain.AuthProvider(provider)
	return u, err
}

// LinkGoogle asocia una identidad de Google a una cuenta existente. Un email
// verificado por Google implica cuenta verificada, así que también limpia el OTP pendiente.
func (r *PgUserRepository) LinkGoogle(ctx context.Context, id, googleID, picture string) error {
	const query = `
		UPDATE users
		SET google_id = COALESCE(google_id, $2),
		    profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
		    is_account_verified = TRUE,
		    verify_otp = NULL,
		    verify_otp_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, googleID, picture)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) SetVerifyOTP(ctx context.Context, id, digest string, expiresAt time.Time) (bool, error) {
	const query = `
		UPDATE users
		SET verify_otp = $2, verify_otp_expires_at = $3, updated_at = now()
		WHERE id = $1 AND NOT is_account_verified
	`
	return r.execAffected(ctx, query, id, digest, expiresAt)
}

func (r *PgUserRepository) ClearVerifyOTP(ctx context.Context, id, digest string) (bool, error) {
	const query = `
		UPDATE users
		SET verify_otp = NULL, verify_otp_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND verify_otp = $2
	`
	return r.execAffected(ctx, query, id, digest)
}

func (r *PgUserRepository) ConsumeVerifyOTP(ctx context.Context, id, digest string, now time.Time) (bool, error) {
	const query = `
		UPDATE users
		SET verify_otp = NULL,
		    verify_otp_expires_at = NULL,
		    is_account_verified = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND NOT is_account_verified
		  AND verify_otp = $2
		  AND verify_otp_expires_at >= $3
	`
	return r.execAffected(ctx, query, id, digest, now)
}

func (r *PgUserRepository) SetResetOTP(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET reset_otp = $2, reset_otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	ok, err := r.execAffected(ctx, query, id, digest, expiresAt)
	if err != nil {
		return err
	}
	if !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) ClearResetOTP(ctx context.Context, id, digest string) (bool, error) {
	const query = `
		UPDATE users
		SET reset_otp = NULL, reset_otp_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND reset_otp = $2
	`
	return r.execAffected(ctx, query, id, digest)
}

func (r *PgUserRepository) ConsumeResetOTP(ctx context.Context, id, digest string, now time.Time, passwordHash string) (bool, error) {
	const query = `
		UPDATE users
		SET password_hash = $4,
		    reset_otp = NULL,
		    reset_otp_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND reset_otp = $2
		  AND reset_otp_expires_at >= $3
	`
	return r.execAffected(ctx, query, id, digest, now, passwordHash)
}

func (r *PgUserRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
