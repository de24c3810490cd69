package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/service"
)

// OAuthHandler implementa el login con Google, tanto por redirección
// (authorization code) como por ID token enviado desde el frontend.
type OAuthHandler struct {
	logger      *zap.Logger
	google      service.GoogleVerifier
	userServ    *service.UserService
	jwtServ     *service.JWTService
	cookies     CookieConfig
	sessionTTL  time.Duration
	frontendURL string
}

// NewOAuthHandler acepta google nil: los endpoints responden como no configurados.
func NewOAuthHandler(
	logger *zap.Logger,
	google service.GoogleVerifier,
	userServ *service.UserService,
	jwtServ *service.JWTService,
	cookies CookieConfig,
	sessionTTL time.Duration,
	frontendURL string,
) *OAuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &OAuthHandler{
		logger:      logger,
		google:      google,
		userServ:    userServ,
		jwtServ:     jwtServ,
		cookies:     cookies,
		sessionTTL:  sessionTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// GoogleURL maneja GET /api/auth/google/url.
func (h *OAuthHandler) GoogleURL(c *gin.Context) {
	if h.google == nil {
		respondError(c, h.logger, "google url", service.ErrOAuthDisabled)
		return
	}
	state, err := service.NewOAuthState()
	if err != nil {
		respondError(c, h.logger, "google url", err)
		return
	}
	h.cookies.setOAuthState(c, state)
	c.JSON(http.StatusOK, gin.H{
		"authUrl": h.google.AuthURL(state),
		"message": "Google auth URL generated",
	})
}

// GoogleCallback maneja GET /api/auth/google/callback y redirige al frontend.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		respondError(c, h.logger, "google callback", service.ErrOAuthDisabled)
		return
	}
	if c.Query("error") != "" {
		h.logger.Info("google oauth denied", zap.String("error", c.Query("error")))
		h.cookies.clearOAuthState(c)
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=oauth_failed")
		return
	}

	state := c.Query("state")
	if state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing state parameter"})
		return
	}
	expected, _ := c.Cookie(oauthStateCookieName)
	if !service.ValidOAuthState(state, expected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state parameter"})
		return
	}
	h.cookies.clearOAuthState(c)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is missing"})
		return
	}

	identity, err := h.google.Exchange(c.Request.Context(), code)
	if err == nil {
		err = h.signIn(c, identity)
	}
	if err != nil {
		h.logger.Warn("google oauth callback failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=oauth_failed")
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/?auth=success")
}

// GoogleToken maneja POST /api/auth/google/token.
func (h *OAuthHandler) GoogleToken(c *gin.Context) {
	if h.google == nil {
		respondError(c, h.logger, "google token", service.ErrOAuthDisabled)
		return
	}
	var req struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid google token request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google ID token is required"})
		return
	}

	identity, err := h.google.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, h.logger, "google token", err)
		return
	}
	user, created, err := h.userServ.UpsertGoogleUser(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.logger, "google token", err)
		return
	}
	session, err := h.jwtServ.IssueSession(user.ID, h.sessionTTL)
	if err != nil {
		respondError(c, h.logger, "google token", err)
		return
	}
	h.cookies.setSession(c, session.Token, session.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"message": "Google authentication successful",
		"created": created,
		"user":    user,
	})
}

func (h *OAuthHandler) signIn(c *gin.Context, identity service.GoogleIdentity) error {
	user, _, err := h.userServ.UpsertGoogleUser(c.Request.Context(), identity)
	if err != nil {
		return err
	}
	session, err := h.jwtServ.IssueSession(user.ID, h.sessionTTL)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	h.cookies.setSession(c, session.Token, session.ExpiresAt)
	return nil
}
