package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"otp-auth/internal/service"
)

// RouterOptions agrupa middlewares opcionales del router.
type RouterOptions struct {
	CORSOrigins  []string
	OTPLimiter   service.OTPRateLimiter
	OAuthLimiter service.OTPRateLimiter
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	otpH *OTPHandler,
	oauthH *OAuthHandler,
	jwtSvc *service.JWTService,
	opts RouterOptions,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(opts.CORSOrigins), jsonContentTypeMiddleware())

	requireSession := SessionAuthMiddleware(jwtSvc)
	otpLimit := RateLimitMiddleware(opts.OTPLimiter, "otp")

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.GET("/is-auth", requireSession, authH.IsAuth)

	auth.POST("/send-verify-otp", requireSession, otpLimit, otpH.SendVerifyOTP)
	auth.GET("/otp-status", requireSession, otpH.OTPStatus)
	auth.POST("/verify-account", requireSession, otpH.VerifyAccount)
	auth.POST("/send-reset-otp", otpLimit, otpH.SendResetOTP)
	auth.POST("/validate-reset-otp", otpH.ValidateResetOTP)
	auth.POST("/reset-password", otpH.ResetPassword)

	google := auth.Group("/google", RateLimitMiddleware(opts.OAuthLimiter, "oauth"))
	google.GET("/url", oauthH.GoogleURL)
	google.GET("/callback", oauthH.GoogleCallback)
	google.POST("/token", oauthH.GoogleToken)

	api.GET("/user/data", requireSession, authH.UserData)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
