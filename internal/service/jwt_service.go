package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService emite y valida los tokens de sesión que viajan en la cookie.
// Cada token lleva un jti registrado en el SessionStore; logout lo revoca.
type JWTService struct {
	secret []byte
	issuer string
	store  SessionStore
	now    func() time.Time
}

// Session es un token firmado junto con su expiración absoluta.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type Claims struct {
	UserID    string `json:"id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

const sessionTokenType = "session"

func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithStore(secret, nil)
}

func NewJWTServiceWithStore(secret string, store SessionStore) *JWTService {
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: "otp-auth",
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IssueSession firma un token de sesión para userID válido durante ttl.
func (s *JWTService) IssueSession(userID string, ttl time.Duration) (Session, error) {
	if len(s.secret) == 0 || strings.TrimSpace(userID) == "" || ttl <= 0 {
		return Session{}, ErrJWTInvalid
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()
	claims := Claims{
		UserID:    userID,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.Store(jti, userID, ttl); err != nil {
		return Session{}, err
	}
	return Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseSession valida firma, expiración y que el jti no haya sido revocado.
func (s *JWTService) ParseSession(tokenString string) (Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

// RevokeSession invalida un token antes de su expiración. Tokens ya inválidos se ignoran.
func (s *JWTService) RevokeSession(tokenString string) error {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}
	return s.store.Revoke(claims.ID)
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if claims.TokenType != sessionTokenType {
		return false
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.ID == "" {
		return false
	}
	return claims.Subject == claims.UserID
}
