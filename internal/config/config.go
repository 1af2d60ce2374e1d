// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Recognised values for the enumerated settings.
var (
	dbDrivers       = []string{"sqlite", "mysql"}
	tagMatchModes   = []string{"exact", "substring"}
	passwordSchemes = []string{"argon2id", "sha256"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// shippedAdminPassword is the seed password used when none is configured.
const shippedAdminPassword = "admin123"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppName        string `env:"OBLOG_APP_NAME" envDefault:"EduRishi Blog"`
	AppIcon        string `env:"OBLOG_APP_ICON" envDefault:"📚"`
	AppDescription string `env:"OBLOG_APP_DESCRIPTION" envDefault:"Insights on Technology, Science and Innovation"`

	// Database
	DBDriver string `env:"OBLOG_DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"OBLOG_DB_PATH" envDefault:"./data/blog.db"`
	DBDSN    string `env:"OBLOG_DB_DSN"` // MySQL DSN, required when DBDriver is mysql

	// Seed admin account
	AdminUsername string `env:"OBLOG_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"OBLOG_ADMIN_PASSWORD" envDefault:"admin123"`
	AdminEmail    string `env:"OBLOG_ADMIN_EMAIL" envDefault:"admin@blog.local"`

	// Taxonomy and posts
	DefaultCategories []string `env:"OBLOG_DEFAULT_CATEGORIES" envSeparator:"," envDefault:"Technology,Quantum Computing,Robotics,AI,Aviation,Physics"`
	DefaultTags       []string `env:"OBLOG_DEFAULT_TAGS" envSeparator:"," envDefault:"quantum,ai,robotics,aviation,physics,technology"`
	TagMatch          string   `env:"OBLOG_TAG_MATCH" envDefault:"exact"`
	PasswordScheme    string   `env:"OBLOG_PASSWORD_SCHEME" envDefault:"argon2id"`

	// Background jobs
	SchedulerCron  string        `env:"OBLOG_SCHEDULER_CRON" envDefault:"@every 1m"`
	PruneCron      string        `env:"OBLOG_PRUNE_CRON" envDefault:"@daily"`
	EventRetention time.Duration `env:"OBLOG_EVENT_RETENTION" envDefault:"720h"`

	// HTTP
	SessionSecret   string        `env:"OBLOG_SESSION_SECRET,required"`
	SessionLifetime time.Duration `env:"OBLOG_SESSION_LIFETIME" envDefault:"24h"`
	ServerHost      string        `env:"OBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort      int           `env:"OBLOG_SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"OBLOG_ENV" envDefault:"development"`
	LogLevel        string        `env:"OBLOG_LOG_LEVEL" envDefault:"info"`
	RateLimitRPS    float64       `env:"OBLOG_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst  int           `env:"OBLOG_RATE_LIMIT_BURST" envDefault:"20"`

	// Cache configuration
	RedisURL    string `env:"OBLOG_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix string `env:"OBLOG_CACHE_PREFIX" envDefault:"oblog:"` // Redis key prefix
	CacheTTL    int    `env:"OBLOG_CACHE_TTL" envDefault:"300"`       // Default cache TTL in seconds
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.DefaultCategories = trimList(cfg.DefaultCategories)
	cfg.DefaultTags = trimList(cfg.DefaultTags)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	if slices.Contains(knownWeakSecrets, cfg.SessionSecret) {
		return nil, fmt.Errorf("OBLOG_SESSION_SECRET is a known default value and must not be used; " +
			"generate a secure secret with: openssl rand -base64 32")
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OBLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if !cfg.IsDevelopment() && cfg.AdminPassword == shippedAdminPassword {
		slog.Warn("OBLOG_ADMIN_PASSWORD is the shipped default; change it before exposing the blog")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := oneOf("OBLOG_DB_DRIVER", c.DBDriver, dbDrivers); err != nil {
		return err
	}
	if c.DBDriver == "mysql" && c.DBDSN == "" {
		return fmt.Errorf("OBLOG_DB_DSN is required when OBLOG_DB_DRIVER is mysql")
	}
	if err := oneOf("OBLOG_TAG_MATCH", c.TagMatch, tagMatchModes); err != nil {
		return err
	}
	if err := oneOf("OBLOG_PASSWORD_SCHEME", c.PasswordScheme, passwordSchemes); err != nil {
		return err
	}
	if err := oneOf("OBLOG_LOG_LEVEL", c.LogLevel, logLevels); err != nil {
		return err
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("OBLOG_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return fmt.Errorf("OBLOG_ADMIN_USERNAME and OBLOG_ADMIN_PASSWORD must not be empty")
	}
	if c.EventRetention < 0 {
		return fmt.Errorf("OBLOG_EVENT_RETENTION must not be negative")
	}
	return nil
}

func oneOf(name, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
}

// trimList drops surrounding whitespace and empty items.
func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
