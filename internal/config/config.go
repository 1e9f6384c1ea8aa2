package config

import (
	"fmt"
	"os"
	"time"
)

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	TLSMode       string // "", "tls", "starttls"
	SkipVerifyTLS bool
	FromAddr      string
	FromName      string
}

type StripeConfig struct {
	APIKey  string
	BaseURL string // override for tests; empty = api.stripe.com
}

type SessionConfig struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

type Config struct {
	Env  string // dev|prod
	Addr string

	DBDSN string

	// Shared secret the external auth provider signs identity callbacks with.
	AuthSharedSecret string

	Session SessionConfig
	SMTP    SMTPConfig
	Stripe  StripeConfig
}

// Load reads configuration from the environment. cmd/web calls godotenv
// first; production supplies real env vars.
func Load() (Config, error) {
	cfg := Config{
		Env:              envOr("APP_ENV", "dev"),
		Addr:             envOr("ADDR", ":8080"),
		DBDSN:            os.Getenv("DB_DSN"),
		AuthSharedSecret: os.Getenv("AUTH_SHARED_SECRET"),
		Session: SessionConfig{
			CookieName: envOr("SESSION_COOKIE", "aisf_session"),
			Secure:     envOr("APP_ENV", "dev") == "prod",
			TTL:        30 * 24 * time.Hour,
		},
		SMTP: SMTPConfig{
			Host:          envOr("SMTP_HOST", "localhost"),
			Port:          envOr("SMTP_PORT", "1025"),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			TLSMode:       os.Getenv("SMTP_TLS_MODE"),
			SkipVerifyTLS: os.Getenv("SMTP_SKIP_VERIFY_TLS") == "true",
			FromAddr:      envOr("MAIL_FROM", "noreply@aisafetyforum.org.au"),
			FromName:      envOr("MAIL_FROM_NAME", "Australian AI Safety Forum"),
		},
		Stripe: StripeConfig{
			APIKey:  os.Getenv("STRIPE_SECRET_KEY"),
			BaseURL: os.Getenv("STRIPE_BASE_URL"),
		},
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: DB_DSN is required")
	}
	if cfg.AuthSharedSecret == "" {
		return Config{}, fmt.Errorf("config: AUTH_SHARED_SECRET is required")
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
