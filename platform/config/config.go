// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ProviderConfig provides settings for the external call-execution provider.
type ProviderConfig interface {
	GetProviderBaseURL() string
	GetProviderAPIKey() string
	GetProviderTimeout() time.Duration
	GetProviderCancelTimeout() time.Duration
	GetProviderRatePerSecond() float64
	GetWebhookBaseURL() string
}

// DispatchConfig provides settings for bulk dispatch orchestration.
type DispatchConfig interface {
	GetBulkConcurrency() int
	GetBulkCooldown() time.Duration
}

// ReconcileConfig provides settings for the reconciliation poller.
type ReconcileConfig interface {
	GetReconcileInterval() time.Duration
}

// QualifierConfig provides settings for the AI lead qualifier.
type QualifierConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsQualifierEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	RedisURL              string
	RedisTLSInsecure      bool
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	AsynqQueueName        string
	AsynqConcurrency      int
	ProviderBaseURL       string
	ProviderAPIKey        string
	ProviderTimeout       time.Duration
	ProviderCancelTimeout time.Duration
	ProviderRatePerSecond float64
	WebhookBaseURL        string
	BulkConcurrency       int
	BulkCooldown          time.Duration
	ReconcileInterval     time.Duration
	GeminiAPIKey          string
	GeminiModel           string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }

// ProviderConfig implementation
func (c *Config) GetProviderBaseURL() string              { return c.ProviderBaseURL }
func (c *Config) GetProviderAPIKey() string               { return c.ProviderAPIKey }
func (c *Config) GetProviderTimeout() time.Duration       { return c.ProviderTimeout }
func (c *Config) GetProviderCancelTimeout() time.Duration { return c.ProviderCancelTimeout }
func (c *Config) GetProviderRatePerSecond() float64       { return c.ProviderRatePerSecond }
func (c *Config) GetWebhookBaseURL() string               { return c.WebhookBaseURL }

// DispatchConfig implementation
func (c *Config) GetBulkConcurrency() int          { return c.BulkConcurrency }
func (c *Config) GetBulkCooldown() time.Duration   { return c.BulkCooldown }

// ReconcileConfig implementation
func (c *Config) GetReconcileInterval() time.Duration { return c.ReconcileInterval }

// QualifierConfig implementation
func (c *Config) GetGeminiAPIKey() string  { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string   { return c.GeminiModel }
func (c *Config) IsQualifierEnabled() bool { return c.GeminiAPIKey != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "calls"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ProviderBaseURL:       getEnv("PROVIDER_BASE_URL", ""),
		ProviderAPIKey:        getEnv("PROVIDER_API_KEY", ""),
		ProviderTimeout:       mustDuration(getEnv("PROVIDER_TIMEOUT", "30s")),
		ProviderCancelTimeout: mustDuration(getEnv("PROVIDER_CANCEL_TIMEOUT", "5s")),
		ProviderRatePerSecond: mustFloat(getEnv("PROVIDER_RATE_PER_SECOND", "5")),
		WebhookBaseURL:        getEnv("WEBHOOK_BASE_URL", "http://localhost:8080"),
		BulkConcurrency:       mustInt(getEnv("BULK_CONCURRENCY", "5")),
		BulkCooldown:          mustDuration(getEnv("BULK_COOLDOWN", "1s")),
		ReconcileInterval:     mustDuration(getEnv("RECONCILE_INTERVAL", "5s")),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 5
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
