package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"otp-auth/internal/config"
	"otp-auth/internal/db"
	"otp-auth/internal/email"
	apihttp "otp-auth/internal/http"
	"otp-auth/internal/repository"
	"otp-auth/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	emailSender := newEmailSender(cfg, logger)

	otpLimiter := service.NewOTPRateLimiter(time.Duration(cfg.OTPRateLimitWindowMinutes)*time.Minute, cfg.OTPRateLimitMax)
	oauthLimiter := service.NewOTPRateLimiter(time.Duration(cfg.OAuthRateLimitWindowMinutes)*time.Minute, cfg.OAuthRateLimitMax)
	sessionStore := service.NewMemorySessionStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, time.Duration(cfg.OTPRateLimitWindowMinutes)*time.Minute, cfg.OTPRateLimitMax)
			oauthLimiter = service.NewRedisOTPRateLimiter(redisClient, time.Duration(cfg.OAuthRateLimitWindowMinutes)*time.Minute, cfg.OAuthRateLimitMax)
			sessionStore = service.NewRedisSessionStore(redisClient)
		}
		cancel()
	}

	codec := service.NewOTPCodec(cfg.Pepper(), cfg.OTPTTL())
	jwtSvc := service.NewJWTServiceWithStore(cfg.JWTSecret, sessionStore)
	userSvc := service.NewUserService(logger, userRepo, emailSender)
	otpSvc := service.NewOTPService(logger, userRepo, emailSender, codec)

	var google service.GoogleVerifier
	if cfg.GoogleEnabled() {
		g, err := service.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
		if err != nil {
			logger.Warn("google oauth init failed", zap.Error(err))
		} else {
			google = g
		}
	} else {
		logger.Info("google oauth not configured")
	}

	cookies := apihttp.CookieConfig{Production: cfg.IsProduction()}
	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc, cookies, cfg.SessionTTL())
	otpHandler := apihttp.NewOTPHandler(logger, otpSvc)
	oauthHandler := apihttp.NewOAuthHandler(logger, google, userSvc, jwtSvc, cookies, cfg.OAuthSessionTTL(), cfg.FrontendURL)
	router := apihttp.NewRouter(logger, authHandler, otpHandler, oauthHandler, jwtSvc, apihttp.RouterOptions{
		CORSOrigins:  cfg.CORSOrigins,
		OTPLimiter:   otpLimiter,
		OAuthLimiter: oauthLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newEmailSender elige SMTP si hay host; en desarrollo cae al log, en producción queda deshabilitado.
func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	if !cfg.IsProduction() {
		logger.Warn("smtp not configured, otp codes will be logged")
		return email.NewLogSender(logger)
	}
	return email.NewDisabledSender("email sender not configured")
}
