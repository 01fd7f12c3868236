package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDesk365URL is the ticket creation endpoint used when DESK365_URL is unset.
const DefaultDesk365URL = "https://mobilityp.desk365.io/apis/v3/tickets/create_with_attachment"

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Database
	DatabaseURL string

	// Security
	SettingsEncryptionKey string
	AdminTokenHash        string

	// Sessions
	RedisURL          string
	SessionCookieName string
	SessionKeyPrefix  string

	// Storage
	StorageRoot string

	// Limits
	RateLimitPerMinute int
	MaxRequestSizeMB   int

	// Desk365
	Desk365URL     string
	Desk365Timeout time.Duration

	Cors struct {
		TrustedOrigins []string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	flag.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	flag.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "PostgreSQL connection string")
	flag.StringVar(&cfg.Desk365URL, "desk365-url", getEnv("DESK365_URL", DefaultDesk365URL), "Desk365 ticket creation endpoint")

	cfg.SettingsEncryptionKey = mustEnv("SETTINGS_ENCRYPTION_KEY")
	cfg.AdminTokenHash = getEnv("ADMIN_TOKEN_HASH", "")
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.SessionCookieName = getEnv("SESSION_COOKIE_NAME", "sid")
	cfg.SessionKeyPrefix = getEnv("SESSION_KEY_PREFIX", "session:")
	cfg.StorageRoot = getEnv("STORAGE_ROOT", "./files")
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 30)
	cfg.MaxRequestSizeMB = getEnvInt("MAX_REQUEST_SIZE_MB", 20)
	cfg.Desk365Timeout = getEnvDuration("DESK365_TIMEOUT", 0)

	flag.Parse()

	// Parse CORS trusted origins from comma-separated env var
	if origins := getEnv("CORS_TRUSTED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.Cors.TrustedOrigins = append(cfg.Cors.TrustedOrigins, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if len(c.SettingsEncryptionKey) < 32 {
		return fmt.Errorf("SETTINGS_ENCRYPTION_KEY must be at least 32 characters")
	}

	if c.Desk365URL == "" {
		return fmt.Errorf("DESK365_URL must not be empty")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if c.MaxRequestSizeMB <= 0 {
		return fmt.Errorf("MAX_REQUEST_SIZE_MB must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		slog.Warn("ignoring invalid integer environment variable", "key", key)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration environment variable", "key", key)
	}
	return fallback
}

func mustEnv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("missing required environment variable", "key", key)
	os.Exit(1)
	return ""
}
