package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/service"
)

// respondError traduce errores de servicio a status + {error}. Los errores no
// reconocidos se registran y devuelven un mensaje genérico.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrPasswordTooLong):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, "All fields are required"
	case errors.Is(err, service.ErrInvalidEmail):
		status, msg = http.StatusBadRequest, "Invalid email"
	case errors.Is(err, service.ErrInvalidCode):
		status, msg = http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, service.ErrCodeExpired):
		status, msg = http.StatusBadRequest, "OTP expired"
	case errors.Is(err, service.ErrAlreadyVerified):
		status, msg = http.StatusBadRequest, "Account already verified"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, "Invalid email or password"
	case errors.Is(err, service.ErrEmailTaken):
		status, msg = http.StatusBadRequest, "Email already exists"
	case errors.Is(err, service.ErrOAuthEmailUnverified):
		status, msg = http.StatusBadRequest, "Google account email is not verified"
	case errors.Is(err, service.ErrOAuthInvalid):
		status, msg = http.StatusBadRequest, "Invalid Google credentials"
	case errors.Is(err, service.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "Too many requests, please try again later"
	case errors.Is(err, service.ErrMailDeliveryFailed):
		msg = "Failed to send email, please try again"
		logger.Warn(op+" failed", zap.Error(err))
	case errors.Is(err, service.ErrOAuthDisabled):
		msg = "OAuth configuration error"
		logger.Error(op+" failed", zap.Error(err))
	default:
		logger.Error(op+" failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid "+op+" request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
