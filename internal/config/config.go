// Package config loads and validates all environment variables at startup.
// Every other package receives typed values — nothing reads os.Getenv directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port string // default "8080"
	Env  string // "development" | "staging" | "production"

	// ── Databases ─────────────────────────────────────────────────────────────
	// DatabaseURL is the system store: sensor readings, reports, audit log.
	// LegacyDatabaseURL is the optional LED collector store, consulted only
	// when the system store has no readings for a household.
	DatabaseURL       string
	LegacyDatabaseURL string

	// ── Redis ─────────────────────────────────────────────────────────────────
	// Optional analysis cache. Empty RedisAddr disables caching entirely.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration // default 10m

	// ── Anthropic ─────────────────────────────────────────────────────────────
	AnthropicAPIKey           string
	AnthropicModel            string // default "claude-sonnet-4-5"
	AnthropicInferenceProfile string // overrides AnthropicModel when set

	// ── OpenAI-compatible fallback ────────────────────────────────────────────
	// Optional. When set, this endpoint is used as the fallback if the
	// Anthropic call fails. If OPENAI_API_KEY is empty, no fallback is
	// configured.
	OpenAIBaseURL string // default "https://api.openai.com"
	OpenAIAPIKey  string
	OpenAIModel   string // default "gpt-4o-mini"

	// ── Engine ────────────────────────────────────────────────────────────────
	GatewayTimeout   time.Duration  // default 60s
	BatchConcurrency int            // default 4
	AutoFileReports  bool           // default false
	Alignment        risk.Alignment // default hour_of_day
	SystemManagerID  int            // manager recorded on auto-filed reports
}

// Load reads all environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present, so
// plain `go run ./cmd/api` works in development without any wrapper. Real
// environment variables always take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	alignment, err := risk.ParseAlignment(os.Getenv("COMPARISON_ALIGNMENT"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	c := &Config{
		Port:                      getEnv("PORT", "8080"),
		Env:                       getEnv("ENV", "development"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		LegacyDatabaseURL:         os.Getenv("LEGACY_DATABASE_URL"),
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   getEnvAsInt("REDIS_DB", 0),
		CacheTTL:                  getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		AnthropicAPIKey:           os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:            getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicInferenceProfile: os.Getenv("ANTHROPIC_INFERENCE_PROFILE"),
		OpenAIBaseURL:             getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:              os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:               getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GatewayTimeout:            getEnvAsDuration("GATEWAY_TIMEOUT", 60*time.Second),
		BatchConcurrency:          getEnvAsInt("BATCH_CONCURRENCY", 4),
		AutoFileReports:           getEnvAsBool("AUTO_FILE_REPORTS", false),
		Alignment:                 alignment,
		SystemManagerID:           getEnvAsInt("SYSTEM_MANAGER_ID", 0),
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("missing required env var: DATABASE_URL"))
	}

	// At least one AI provider must be configured.
	if c.AnthropicAPIKey == "" && c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("at least one of ANTHROPIC_API_KEY or OPENAI_API_KEY must be set"))
	}

	if c.AutoFileReports && c.SystemManagerID <= 0 {
		errs = append(errs, fmt.Errorf("AUTO_FILE_REPORTS requires SYSTEM_MANAGER_ID"))
	}

	return errors.Join(errs...)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Try a plain integer first (treated as seconds, minutes, or hours
	// depending on the variable name).
	if value, err := strconv.Atoi(valueStr); err == nil {
		switch {
		case strings.Contains(key, "HOURS"):
			return time.Duration(value) * time.Hour
		case strings.Contains(key, "MINUTES"):
			return time.Duration(value) * time.Minute
		default:
			return time.Duration(value) * time.Second
		}
	}
	// Fall back to Go duration syntax: "30s", "5m", "1h", etc.
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
