// Package config loads and validates application configuration from
// environment variables. A local .env file is honored in development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" env-default:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `env:"DATABASE_URL"`

	// JWTSecret signs session access tokens (HS256). Required.
	JWTSecret string `env:"JWT_SECRET"`

	// SessionTTL is how long an issued session stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"24h"`

	// GeminiAPIKey enables the AI reflection feature. When empty the
	// reflection endpoint still works but always answers with the
	// service-unavailable fallback.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// GeminiModel is the Gemini model used for reflections.
	GeminiModel string `env:"GEMINI_MODEL" env-default:"gemini-3-flash-preview"`

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// CORSOriginsRaw is a comma-separated list of allowed origins.
	// Defaults to the Vite dev server.
	CORSOriginsRaw string `env:"CORS_ORIGINS" env-default:"http://localhost:5173"`

	// MaxBodyBytes caps the size of accepted request bodies.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" env-default:"1048576"`
}

// CORSOrigins returns the allowed origins as a trimmed slice.
func (c Config) CORSOrigins() []string {
	var out []string
	for _, part := range strings.Split(c.CORSOriginsRaw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Load reads configuration from the environment (with an optional .env
// preload) and returns a Config. Returns an error listing any required
// variables that are not set.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
