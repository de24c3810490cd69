package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/service"
)

// OTPHandler expone los tracks de verificación de email y reseteo de contraseña.
// Las expiraciones viajan como milisegundos Unix.
type OTPHandler struct {
	logger  *zap.Logger
	otpServ *service.OTPService
}

func NewOTPHandler(logger *zap.Logger, otpServ *service.OTPService) *OTPHandler {
	return &OTPHandler{
		logger:  logger,
		otpServ: otpServ,
	}
}

// SendVerifyOTP maneja POST /api/auth/send-verify-otp.
func (h *OTPHandler) SendVerifyOTP(c *gin.Context) {
	expiresAt, err := h.otpServ.IssueVerifyOTP(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, "send verify otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification OTP sent to your email",
		"expiresAt": unixMillis(expiresAt),
	})
}

// OTPStatus maneja GET /api/auth/otp-status.
func (h *OTPHandler) OTPStatus(c *gin.Context) {
	status, err := h.otpServ.GetOTPStatus(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, "otp status", err)
		return
	}
	var expiresAt any
	if status.ExpiresAt != nil {
		expiresAt = unixMillis(*status.ExpiresAt)
	}
	c.JSON(http.StatusOK, gin.H{
		"isVerified":   status.IsVerified,
		"hasActiveOtp": status.HasActiveOTP,
		"expiresAt":    expiresAt,
	})
}

// VerifyAccount maneja POST /api/auth/verify-account.
func (h *OTPHandler) VerifyAccount(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "verify account", err)
		return
	}
	if err := h.otpServ.ValidateAndConsumeVerifyOTP(c.Request.Context(), currentUserID(c), req.OTP); err != nil {
		respondError(c, h.logger, "verify account", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// SendResetOTP maneja POST /api/auth/send-reset-otp. La respuesta es la misma
// exista o no la cuenta.
func (h *OTPHandler) SendResetOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "send reset otp", err)
		return
	}
	expiresAt, err := h.otpServ.IssueResetOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, "send reset otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "If the account exists, an OTP was sent to the email",
		"expiresAt": unixMillis(expiresAt),
	})
}

// ValidateResetOTP maneja POST /api/auth/validate-reset-otp.
func (h *OTPHandler) ValidateResetOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "validate reset otp", err)
		return
	}
	if err := h.otpServ.ValidateResetOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, h.logger, "validate reset otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP is valid"})
}

// ResetPassword maneja POST /api/auth/reset-password.
func (h *OTPHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "reset password", err)
		return
	}
	if err := h.otpServ.FinalizeReset(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func unixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
