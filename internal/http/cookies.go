package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName    = "token"
	oauthStateCookieName = "oauth_state"
	oauthStateTTL        = 10 * time.Minute
)

// CookieConfig decide los atributos de las cookies según el entorno.
type CookieConfig struct {
	Production bool
}

func (cfg CookieConfig) sameSite() http.SameSite {
	if cfg.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}

func (cfg CookieConfig) setSession(c *gin.Context, token string, expiresAt time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: cfg.sameSite(),
	})
}

func (cfg CookieConfig) clearSession(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: cfg.sameSite(),
	})
}

// La cookie de state tiene que viajar en la redirección de Google, por eso usa Lax.
func (cfg CookieConfig) setOAuthState(c *gin.Context, state string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cfg CookieConfig) clearOAuthState(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}
