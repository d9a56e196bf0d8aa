package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "studiohub.db"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTAccessTTL    = "24h"
	defaultInviteTTL       = "168h"
	defaultInviteIssuer    = "studiohub"
	defaultInviteAudience  = "studiohub-invite"
	defaultCurrency        = "ils"
	defaultFrontendURL     = "http://localhost:5173"
	defaultReconcileCron   = "*/10 * * * *"
	defaultOverdueAfter    = "72h"
	defaultPendingMaxAge   = "30m"
	defaultMigrateOnStart  = "true"
	defaultWebhookSecret   = ""
	defaultStripeSecretKey = ""
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	InviteSecret   string
	InviteTTL      time.Duration
	InviteIssuer   string
	InviteAudience string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	FrontendURL        string
	CORSAllowedOrigins []string

	RabbitMQURL string

	InternalAPIToken   string
	InternalAllowedIPs []string

	ReconcileCron        string
	PaymentOverdueAfter  time.Duration
	PendingPaymentMaxAge time.Duration
	MigrateOnStart       bool
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.InviteSecret = strings.TrimSpace(getEnv("INVITE_SECRET", cfg.JWTSecret))
	cfg.InviteIssuer = strings.TrimSpace(getEnv("INVITE_ISSUER", defaultInviteIssuer))
	cfg.InviteAudience = strings.TrimSpace(getEnv("INVITE_AUDIENCE", defaultInviteAudience))
	cfg.StripeSecretKey = strings.TrimSpace(getEnv("STRIPE_SECRET_KEY", defaultStripeSecretKey))
	cfg.StripeWebhookSecret = strings.TrimSpace(getEnv("STRIPE_WEBHOOK_SECRET", defaultWebhookSecret))
	cfg.PaymentCurrency = strings.ToLower(strings.TrimSpace(getEnv("PAYMENT_CURRENCY", defaultCurrency)))
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(getEnv("FRONTEND_URL", defaultFrontendURL)), "/")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	cfg.InternalAPIToken = strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN"))
	cfg.InternalAllowedIPs = splitList(os.Getenv("INTERNAL_ALLOWED_IPS"))
	cfg.ReconcileCron = strings.TrimSpace(getEnvAllowEmpty("RECONCILE_CRON", defaultReconcileCron))
	cfg.MigrateOnStart = parseBoolEnv("MIGRATE_ON_START", defaultMigrateOnStart)

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.InviteTTL, err = parseDurationEnv("INVITE_TTL", defaultInviteTTL); err != nil {
		return nil, err
	}
	if cfg.PaymentOverdueAfter, err = parseDurationEnv("PAYMENT_OVERDUE_AFTER", defaultOverdueAfter); err != nil {
		return nil, err
	}
	if cfg.PendingPaymentMaxAge, err = parseDurationEnv("PENDING_PAYMENT_MAX_AGE", defaultPendingMaxAge); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be > 0")
	}
	if cfg.PaymentOverdueAfter <= 0 {
		return fmt.Errorf("PAYMENT_OVERDUE_AFTER must be > 0")
	}
	if cfg.PendingPaymentMaxAge <= 0 {
		return fmt.Errorf("PENDING_PAYMENT_MAX_AGE must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if len(cfg.PaymentCurrency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be a 3-letter ISO code")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.InviteSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release INVITE_SECRET must be set and not default")
		}
		if cfg.StripeSecretKey == "" {
			return fmt.Errorf("in prod/release STRIPE_SECRET_KEY must be set")
		}
		if cfg.StripeWebhookSecret == "" {
			return fmt.Errorf("in prod/release STRIPE_WEBHOOK_SECRET must be set")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty distinguishes an unset variable from one explicitly set to "".
func getEnvAllowEmpty(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
