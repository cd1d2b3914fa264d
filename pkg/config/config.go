package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig
	Import  ImportConfig
	Logging LoggingConfig
}

type BackendConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type ImportConfig struct {
	// DefaultAccountID preassigns staged rows to an account; 0 leaves
	// assignment to the user.
	DefaultAccountID    int64
	SuggestionThreshold int
	SuggestionLimit     int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from a .env file when present, then from
// environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Import: ImportConfig{
			DefaultAccountID:    int64(getEnvAsInt("IMPORT_DEFAULT_ACCOUNT_ID", 0)),
			SuggestionThreshold: getEnvAsInt("IMPORT_SUGGESTION_THRESHOLD", 55),
			SuggestionLimit:     getEnvAsInt("IMPORT_SUGGESTION_LIMIT", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
