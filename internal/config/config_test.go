package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("INVITE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteTTL)
	assert.Equal(t, "ils", cfg.PaymentCurrency)
	assert.Equal(t, cfg.JWTSecret, cfg.InviteSecret)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsDefaultSecretsInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRequiresStripeInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("INVITE_SECRET", "invite-secret")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_TTL")
}

func TestLoadCORSAndCronOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RECONCILE_CRON", "")
	t.Setenv("FRONTEND_URL", "https://app.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "", cfg.ReconcileCron)
	assert.Equal(t, "https://app.example", cfg.FrontendURL)
}

func TestLoadInternalAPI(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("INTERNAL_API_TOKEN", " ops-token ")
	t.Setenv("INTERNAL_ALLOWED_IPS", "10.0.0.1,10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ops-token", cfg.InternalAPIToken)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.InternalAllowedIPs)
}
