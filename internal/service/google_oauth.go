package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// GoogleIdentity son los datos de perfil que nos interesan de un ID token de Google.
type GoogleIdentity struct {
	GoogleID      string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// GoogleVerifier abstrae el flujo OAuth de Google para poder sustituirlo en tests.
type GoogleVerifier interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleIdentity, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (GoogleIdentity, error)
}

type tokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type GoogleOAuth struct {
	config   *oauth2.Config
	validate tokenValidator
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string) (*GoogleOAuth, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" || strings.TrimSpace(redirectURL) == "" {
		return nil, ErrOAuthDisabled
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}, nil
}

func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange canjea el código de autorización y valida el ID token devuelto.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleIdentity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return GoogleIdentity{}, ErrOAuthInvalid
	}
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return GoogleIdentity{}, ErrOAuthInvalid
	}
	return g.VerifyIDToken(ctx, rawIDToken)
}

func (g *GoogleOAuth) VerifyIDToken(ctx context.Context, rawIDToken string) (GoogleIdentity, error) {
	rawIDToken = strings.TrimSpace(rawIDToken)
	if rawIDToken == "" {
		return GoogleIdentity{}, ErrOAuthInvalid
	}
	payload, err := g.validate(ctx, rawIDToken, g.config.ClientID)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrOAuthInvalid, err)
	}
	return identityFromPayload(payload), nil
}

func identityFromPayload(payload *idtoken.Payload) GoogleIdentity {
	if payload == nil {
		return GoogleIdentity{}
	}
	return sanitizeIdentity(GoogleIdentity{
		GoogleID:      payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	})
}

func sanitizeIdentity(identity GoogleIdentity) GoogleIdentity {
	return GoogleIdentity{
		GoogleID:      strings.TrimSpace(identity.GoogleID),
		Email:         normalizeEmail(identity.Email),
		Name:          truncate(strings.TrimSpace(identity.Name), maxNameLength),
		Picture:       strings.TrimSpace(identity.Picture),
		EmailVerified: identity.EmailVerified,
	}
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}

// email_verified llega como bool, aunque algunos emisores lo mandan como string.
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

const oauthStateBytes = 16

// NewOAuthState genera el valor aleatorio usado como protección CSRF del callback.
func NewOAuthState() (string, error) {
	buf := make([]byte, oauthStateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidOAuthState compara el state recibido con el que se guardó en la cookie.
func ValidOAuthState(received, expected string) bool {
	if len(received) < 10 || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}
