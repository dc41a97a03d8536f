package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the service
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// StoreDriver selects the credential store backend: "postgres" or "memory"
	StoreDriver string

	// AllowedOrigins lists origins allowed to make credentialed CORS
	// requests. Empty means same-origin only.
	AllowedOrigins []string

	Session      SessionConfig
	DefaultAdmin AdminSeedConfig
	Kafka        KafkaConfig
}

// SessionConfig controls session issuance and cleanup
type SessionConfig struct {
	// Store selects the session backend: "redis", "postgres" or "memory"
	Store        string
	TTL          time.Duration
	CookieName   string
	ReapInterval time.Duration
}

// AdminSeedConfig describes the administrator created on first start
type AdminSeedConfig struct {
	Username string
	Password string
	Email    string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "12345"
	DefaultAdminEmail    = "admin@jdsa.com"
)

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),

		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Session: SessionConfig{
			Store:      strings.ToLower(os.Getenv("SESSION_STORE")),
			CookieName: getEnv("SESSION_COOKIE_NAME", "portal_session"),
		},
		DefaultAdmin: AdminSeedConfig{
			Username: getEnv("DEFAULT_ADMIN_USERNAME", DefaultAdminUsername),
			Password: getEnv("DEFAULT_ADMIN_PASSWORD", DefaultAdminPassword),
			Email:    getEnv("DEFAULT_ADMIN_EMAIL", DefaultAdminEmail),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "portal.auth.events"),
		},
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.Session.TTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.ReapInterval, err = getDuration("SESSION_REAP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = defaultSessionStore(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Session.Store {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	case "postgres":
		if c.StoreDriver != "postgres" {
			return fmt.Errorf("SESSION_STORE=postgres requires STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.ReapInterval < 0 {
		return fmt.Errorf("SESSION_REAP_INTERVAL must not be negative")
	}

	return nil
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultSessionStore(cfg *Config) string {
	if cfg.RedisURL != "" {
		return "redis"
	}
	if cfg.StoreDriver == "memory" {
		return "memory"
	}
	return "postgres"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	// bare integers are seconds
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, raw)
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
