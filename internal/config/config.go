package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string   `env:"HTTP_PORT" envDefault:"4000"`
	AppEnv        string   `env:"APP_ENV" envDefault:"development"`
	DatabaseURL   string   `env:"DATABASE_URL,required,notEmpty"`
	RunMigrations bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
	FrontendURL   string   `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	JWTSecret            string `env:"JWT_SECRET,required,notEmpty"`
	SessionTTLMinutes    int    `env:"SESSION_TTL_MINUTES" envDefault:"60"`
	OAuthSessionTTLHours int    `env:"OAUTH_SESSION_TTL_HOURS" envDefault:"168"`
	OTPPepper            string `env:"OTP_PEPPER"`
	OTPTTLMinutes        int    `env:"OTP_TTL_MINUTES" envDefault:"10"`

	OTPRateLimitMax             int `env:"OTP_RATE_LIMIT_MAX" envDefault:"3"`
	OTPRateLimitWindowMinutes   int `env:"OTP_RATE_LIMIT_WINDOW_MINUTES" envDefault:"10"`
	OAuthRateLimitMax           int `env:"OAUTH_RATE_LIMIT_MAX" envDefault:"10"`
	OAuthRateLimitWindowMinutes int `env:"OAUTH_RATE_LIMIT_WINDOW_MINUTES" envDefault:"15"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
}

// IsProduction indica si las cookies deben emitirse con Secure y SameSite=None.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleEnabled indica si hay credenciales suficientes para OAuth con Google.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURI != ""
}

// Pepper devuelve la clave para los digests de OTP; cae al secreto JWT si no se configuró.
func (c *Config) Pepper() string {
	if c.OTPPepper != "" {
		return c.OTPPepper
	}
	return c.JWTSecret
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) OAuthSessionTTL() time.Duration {
	return time.Duration(c.OAuthSessionTTLHours) * time.Hour
}

func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClientConfig configura el cliente de terminal.
type ClientConfig struct {
	APIURL    string `env:"AUTH_API_URL" envDefault:"http://localhost:4000"`
	StateFile string `env:"AUTH_STATE_FILE" envDefault:".otp-auth-state.json"`
	Debug     bool   `env:"AUTH_DEBUG" envDefault:"false"`
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
