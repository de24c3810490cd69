package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/otp")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "4000", cfg.HTTPPort)
	require.False(t, cfg.IsProduction())
	require.True(t, cfg.RunMigrations)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Equal(t, time.Hour, cfg.SessionTTL())
	require.Equal(t, 7*24*time.Hour, cfg.OAuthSessionTTL())
	require.Equal(t, 10*time.Minute, cfg.OTPTTL())
	require.Equal(t, 3, cfg.OTPRateLimitMax)
	require.False(t, cfg.GoogleEnabled())
	require.Equal(t, "secret", cfg.Pepper(), "pepper falls back to the jwt secret")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/otp")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTP_PEPPER", "pepper")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("GOOGLE_REDIRECT_URI", "https://api.example/api/auth/google/callback")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "pepper", cfg.Pepper())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.True(t, cfg.GoogleEnabled())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/otp")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadClientConfig(t *testing.T) {
	t.Setenv("AUTH_API_URL", "http://api.local:4000")

	cfg, err := LoadClientConfig()
	require.NoError(t, err)
	require.Equal(t, "http://api.local:4000", cfg.APIURL)
	require.Equal(t, ".otp-auth-state.json", cfg.StateFile)
}
