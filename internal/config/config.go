package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SessionMaxAge is the lifetime of the sessionId cookie
const SessionMaxAge = 7 * 24 * time.Hour

// Config holds application configuration
type Config struct {
	Port           string
	DBConn         string
	LogLevel       string
	SessionSecret  string
	CookieSecure   bool
	AutoMigrate    bool
	MetricsEnabled bool
	RegisterRate   float64
	RegisterBurst  int
	StatsCron      string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPTimeout    time.Duration
	SenderEmail    string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=diet sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		StatsCron:     getEnv("STATS_CRON", "@every 1m"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "no-reply@daily-diet.local"),
	}

	var err error
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RegisterRate, err = strconv.ParseFloat(getEnv("REGISTER_RATE", "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid REGISTER_RATE: %w", err)
	}
	if cfg.RegisterBurst, err = strconv.Atoi(getEnv("REGISTER_BURST", "10")); err != nil {
		return nil, fmt.Errorf("invalid REGISTER_BURST: %w", err)
	}
	if cfg.SMTPTimeout, err = time.ParseDuration(getEnv("SMTP_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_TIMEOUT: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.SMTPTimeout <= 0 {
		return nil, fmt.Errorf("SMTP_TIMEOUT must be positive")
	}
	if cfg.RegisterRate < 0 {
		return nil, fmt.Errorf("REGISTER_RATE must not be negative")
	}

	return cfg, nil
}

// MailEnabled reports whether welcome mails should be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
