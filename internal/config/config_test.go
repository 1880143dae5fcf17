package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "test-secret", cfg.SessionSecret)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 5.0, cfg.RegisterRate)
	assert.Equal(t, 10, cfg.RegisterBurst)
	assert.Equal(t, "@every 1m", cfg.StatsCron)
	assert.Equal(t, 10*time.Second, cfg.SMTPTimeout)
	assert.False(t, cfg.MailEnabled())
}

func TestNewConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("PORT", "3333")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REGISTER_RATE", "0")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 0.0, cfg.RegisterRate)
	assert.True(t, cfg.MailEnabled())
}

func TestNewConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := NewConfig()
	assert.EqualError(t, err, "SESSION_SECRET is required")
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("AUTO_MIGRATE", "maybe")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "invalid AUTO_MIGRATE")
}

func TestNewConfigRejectsBadSMTPTimeout(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("SMTP_TIMEOUT", "0s")

	_, err := NewConfig()
	assert.EqualError(t, err, "SMTP_TIMEOUT must be positive")
}
