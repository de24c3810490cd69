package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/service"
)

// AuthHandler atiende registro, login, logout y datos de la sesión actual.
type AuthHandler struct {
	logger     *zap.Logger
	userServ   *service.UserService
	jwtServ    *service.JWTService
	cookies    CookieConfig
	sessionTTL time.Duration
}

func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, cookies CookieConfig, sessionTTL time.Duration) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	return &AuthHandler{
		logger:     logger,
		userServ:   userServ,
		jwtServ:    jwtServ,
		cookies:    cookies,
		sessionTTL: sessionTTL,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	if !h.startSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	if !h.startSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// Logout maneja POST /api/auth/logout. Revoca la sesión si la cookie sigue siendo válida.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
		if err := h.jwtServ.RevokeSession(token); err != nil {
			h.logger.Debug("revoke session skipped", zap.Error(err))
		}
	}
	h.cookies.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// IsAuth maneja GET /api/auth/is-auth; el middleware ya rechazó sesiones inválidas.
func (h *AuthHandler) IsAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// UserData maneja GET /api/user/data.
func (h *AuthHandler) UserData(c *gin.Context) {
	user, err := h.userServ.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, "user data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userData": gin.H{
		"name":              user.Name,
		"email":             user.Email,
		"isAccountVerified": user.IsAccountVerified,
		"profilePicture":    user.ProfilePicture,
		"authProvider":      user.AuthProvider,
	}})
}

func (h *AuthHandler) startSession(c *gin.Context, userID string) bool {
	session, err := h.jwtServ.IssueSession(userID, h.sessionTTL)
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	h.cookies.setSession(c, session.Token, session.ExpiresAt)
	return true
}
