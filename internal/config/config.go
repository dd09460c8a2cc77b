// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"adstudio/internal/ai"
	"adstudio/internal/placeholder"
)

const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). Optional.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// AI provider settings
	AIProvider        string // "openai", "gemini", "claude", "mistral"
	AIHTTPTimeout     time.Duration
	ModerationEnabled bool
	Providers         map[string]ai.ProviderConfig

	// S3-compatible object storage. Optional.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Rendering service. Optional.
	RenderAPIKey       string
	RenderBaseURL      string
	RenderPollInterval time.Duration
	RenderPollAttempts int

	// Template catalog
	TemplateSyncSchedule    string // cron spec; empty disables scheduled sync
	TemplateSyncConcurrency int
	TemplateCacheTTL        time.Duration

	// Generation
	ReviewMaxPasses    int
	PlaceholderPolicy  placeholder.Policy
	BrandFile          string // empty uses the embedded brand context
	RateLimitPerMinute int    // zero disables rate limiting

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// providerNames are the completion providers read from the environment.
var providerNames = []string{"openai", "gemini", "claude", "mistral"}

// setDefaults registers the development defaults on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "adstudio")
	v.SetDefault("POSTGRES_PASSWORD", defaultDBPassword)
	v.SetDefault("POSTGRES_DB", "adstudio")

	v.SetDefault("VALKEY_HOST", "")
	v.SetDefault("VALKEY_PORT", "6379")
	v.SetDefault("VALKEY_DB", 0)

	v.SetDefault("AI_PROVIDER", "claude")
	v.SetDefault("AI_HTTP_TIMEOUT", 180*time.Second)
	v.SetDefault("MODERATION_ENABLED", true)

	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("RENDER_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("RENDER_POLL_ATTEMPTS", 60)

	v.SetDefault("TEMPLATE_SYNC_SCHEDULE", "")
	v.SetDefault("TEMPLATE_SYNC_CONCURRENCY", 4)
	v.SetDefault("TEMPLATE_CACHE_TTL", 10*time.Minute)

	v.SetDefault("REVIEW_MAX_PASSES", 1)
	v.SetDefault("PLACEHOLDER_POLICY", string(placeholder.PolicyBlank))
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value cannot be used.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// Keys without a default are only seen by AutomaticEnv when bound.
	for _, key := range []string{
		"VALKEY_PASSWORD",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL",
		"RENDER_API_KEY", "RENDER_BASE_URL", "BRAND_FILE",
	} {
		_ = v.BindEnv(key)
	}
	for _, name := range providerNames {
		prefix := strings.ToUpper(name)
		_ = v.BindEnv(prefix + "_API_KEY")
		_ = v.BindEnv(prefix + "_MODEL")
		_ = v.BindEnv(prefix + "_BASE_URL")
	}

	policy, err := placeholder.ParsePolicy(v.GetString("PLACEHOLDER_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("PLACEHOLDER_POLICY: %w", err)
	}

	cfg := &Config{
		Host:     v.GetString("APP_HOST"),
		Port:     v.GetString("APP_PORT"),
		Env:      v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBHost:     v.GetString("POSTGRES_HOST"),
		DBPort:     v.GetString("POSTGRES_PORT"),
		DBUser:     v.GetString("POSTGRES_USER"),
		DBPassword: v.GetString("POSTGRES_PASSWORD"),
		DBName:     v.GetString("POSTGRES_DB"),

		ValkeyHost:     v.GetString("VALKEY_HOST"),
		ValkeyPort:     v.GetString("VALKEY_PORT"),
		ValkeyPassword: v.GetString("VALKEY_PASSWORD"),
		ValkeyDB:       v.GetInt("VALKEY_DB"),

		AIProvider:        strings.ToLower(v.GetString("AI_PROVIDER")),
		AIHTTPTimeout:     v.GetDuration("AI_HTTP_TIMEOUT"),
		ModerationEnabled: v.GetBool("MODERATION_ENABLED"),
		Providers:         make(map[string]ai.ProviderConfig, len(providerNames)),

		S3Endpoint:  v.GetString("S3_ENDPOINT"),
		S3Region:    v.GetString("S3_REGION"),
		S3AccessKey: v.GetString("S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("S3_SECRET_KEY"),
		S3Bucket:    v.GetString("S3_BUCKET"),
		S3PublicURL: v.GetString("S3_PUBLIC_URL"),

		RenderAPIKey:       v.GetString("RENDER_API_KEY"),
		RenderBaseURL:      v.GetString("RENDER_BASE_URL"),
		RenderPollInterval: v.GetDuration("RENDER_POLL_INTERVAL"),
		RenderPollAttempts: v.GetInt("RENDER_POLL_ATTEMPTS"),

		TemplateSyncSchedule:    strings.TrimSpace(v.GetString("TEMPLATE_SYNC_SCHEDULE")),
		TemplateSyncConcurrency: v.GetInt("TEMPLATE_SYNC_CONCURRENCY"),
		TemplateCacheTTL:        v.GetDuration("TEMPLATE_CACHE_TTL"),

		ReviewMaxPasses:    v.GetInt("REVIEW_MAX_PASSES"),
		PlaceholderPolicy:  policy,
		BrandFile:          v.GetString("BRAND_FILE"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		TrustProxyHeaders:  v.GetBool("TRUST_PROXY_HEADERS"),
	}

	for _, name := range providerNames {
		prefix := strings.ToUpper(name)
		cfg.Providers[name] = ai.ProviderConfig{
			APIKey:  v.GetString(prefix + "_API_KEY"),
			Model:   v.GetString(prefix + "_MODEL"),
			BaseURL: v.GetString(prefix + "_BASE_URL"),
			Timeout: cfg.AIHTTPTimeout,
		}
	}

	if cfg.ReviewMaxPasses < 0 {
		return nil, fmt.Errorf("REVIEW_MAX_PASSES must not be negative")
	}
	if cfg.TemplateSyncConcurrency <= 0 {
		return nil, fmt.Errorf("TEMPLATE_SYNC_CONCURRENCY must be positive")
	}
	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasValkey reports whether a Valkey host is configured.
func (c *Config) HasValkey() bool {
	return c.ValkeyHost != ""
}
