package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"otp-auth/internal/domain"
)

// InMemoryUserRepository implementa UserRepository en memoria, con la misma
// semántica condicional que PgUserRepository. Pensado para tests y modo demo.
type InMemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
	byGID   map[string]string
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		byGID:   make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return ErrDuplicate
	}
	if user.GoogleID != "" {
		if _, ok := r.byGID[user.GoogleID]; ok {
			return ErrDuplicate
		}
		r.byGID[user.GoogleID] = user.ID
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	id, ok := r.byEmail[email]
	r.mu.Unlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryUserRepository) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	r.mu.Lock()
	id, ok := r.byGID[googleID]
	r.mu.Unlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryUserRepository) LinkGoogle(_ context.Context, id, googleID, picture string) error {
	r.mu.Lock()
	owner, taken := r.byGID[googleID]
	r.mu.Unlock()
	if taken && owner != id {
		return ErrDuplicate
	}
	return r.update(id, func(u *domain.User) bool {
		if u.GoogleID == "" {
			u.GoogleID = googleID
			r.byGID[googleID] = id
		}
		if picture != "" {
			u.ProfilePicture = picture
		}
		u.IsAccountVerified = true
		u.VerifyOTP = ""
		u.VerifyOTPExpiresAt = nil
		return true
	})
}

func (r *InMemoryUserRepository) SetVerifyOTP(_ context.Context, id, digest string, expiresAt time.Time) (bool, error) {
	return r.updateAffected(id, func(u *domain.User) bool {
		if u.IsAccountVerified {
			return false
		}
		u.VerifyOTP = digest
		u.VerifyOTPExpiresAt = &expiresAt
		return true
	})
}

func (r *InMemoryUserRepository) ClearVerifyOTP(_ context.Context, id, digest string) (bool, error) {
	return r.updateAffected(id, func(u *domain.User) bool {
		if u.VerifyOTP == "" || u.VerifyOTP != digest {
			return false
		}
		u.VerifyOTP = ""
		u.VerifyOTPExpiresAt = nil
		return true
	})
}

func (r *InMemoryUserRepository) ConsumeVerifyOTP(_ context.Context, id, digest string, now time.Time) (bool, error) {
	return r.updateAffected(id, func(u *domain.User) bool {
		if u.IsAccountVerified || u.VerifyOTP == "" || u.VerifyOTP != digest {
			return false
		}
		if u.VerifyOTPExpiresAt == nil || now.After(*u.VerifyOTPExpiresAt) {
			return false
		}
		u.VerifyOTP = ""
		u.VerifyOTPExpiresAt = nil
		u.IsAccountVerified = true
		return true
	})
}

func (r *InMemoryUserRepository) SetResetOTP(_ context.Context, id, digest string, expiresAt time.Time) error {
	return r.update(id, func(u *domain.User) bool {
		u.ResetOTP = digest
		u.ResetOTPExpiresAt = &expiresAt
		return true
	})
}

func (r *InMemoryUserRepository) ClearResetOTP(_ context.Context, id, digest string) (bool, error) {
	return r.updateAffected(id, func(u *domain.User) bool {
		if u.ResetOTP == "" || u.ResetOTP != digest {
			return false
		}
		u.ResetOTP = ""
		u.ResetOTPExpiresAt = nil
		return true
	})
}

func (r *InMemoryUserRepository) ConsumeResetOTP(_ context.Context, id, digest string, now time.Time, passwordHash string) (bool, error) {
	return r.updateAffected(id, func(u *domain.User) bool {
		if u.ResetOTP == "" || u.ResetOTP != digest {
			return false
		}
		if u.ResetOTPExpiresAt == nil || now.After(*u.ResetOTPExpiresAt) {
			return false
		}
		u.PasswordHash = passwordHash
		u.ResetOTP = ""
		u.ResetOTPExpiresAt = nil
		return true
	})
}

func (r *InMemoryUserRepository) updateAffected(id string, fn func(u *domain.User) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if !fn(&user) {
		return false, nil
	}
	user.UpdatedAt = time.Now().UTC()
	r.byID[id] = user
	return true, nil
}

func (r *InMemoryUserRepository) update(id string, fn func(u *domain.User) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if fn(&user) {
		user.UpdatedAt = time.Now().UTC()
		r.byID[id] = user
	}
	return nil
}
