package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration, optional
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// S3 image storage, optional
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string

	// Logging
	LogLevel  string
	LogPretty bool

	// RecipeCreationLimit is the per-user hourly cap on new recipes when
	// Redis is configured.
	RecipeCreationLimit int
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// S3Enabled reports whether recipe images go to S3.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	// Load configuration based on environment
	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig loads configuration for CI environment from environment variables only
func loadCIConfig(cfg *Config) error {
	loadCommon(cfg, os.Getenv)
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.DBDriver = withDefault(cfg.DBDriver, "postgres")
	return nil
}

// loadDevConfig loads configuration for development environment. Environment
// variables win, Docker secrets are the fallback, and local defaults fill the rest.
func loadDevConfig(cfg *Config) error {
	lookup := func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return readSecret(strings.ToLower(name))
	}
	loadCommon(cfg, lookup)

	cfg.DBPassword = lookup("DB_PASSWORD")
	cfg.JWTSecret = lookup("JWT_SECRET")
	cfg.RedisPassword = lookup("REDIS_PASSWORD")

	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "foodgram.db"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	return nil
}

// loadProdConfig loads configuration for production environment. Sensitive
// values come from Docker secrets only.
func loadProdConfig(cfg *Config) error {
	lookup := func(name string) string {
		if v := readSecret(strings.ToLower(name)); v != "" {
			return v
		}
		return os.Getenv(name)
	}
	loadCommon(cfg, lookup)

	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.DBDriver = withDefault(cfg.DBDriver, "postgres")
	return nil
}

// loadCommon fills the non-sensitive settings and defaults.
func loadCommon(cfg *Config, lookup func(string) string) {
	cfg.ServerPort = withDefault(lookup("SERVER_PORT"), "8080")
	cfg.ServerHost = withDefault(lookup("SERVER_HOST"), "0.0.0.0")
	cfg.CORSOrigins = splitList(withDefault(lookup("CORS_ORIGINS"), "http://localhost:3000"))

	cfg.DBDriver = lookup("DB_DRIVER")
	cfg.DBHost = withDefault(lookup("DB_HOST"), "localhost")
	cfg.DBPort = withDefault(lookup("DB_PORT"), "5432")
	cfg.DBUser = withDefault(lookup("DB_USER"), "postgres")
	cfg.DBName = withDefault(lookup("DB_NAME"), "foodgram")
	cfg.DBSSLMode = withDefault(lookup("DB_SSL_MODE"), "disable")
	cfg.SQLitePath = lookup("SQLITE_PATH")

	cfg.RedisHost = lookup("REDIS_HOST")
	cfg.RedisPort = withDefault(lookup("REDIS_PORT"), "6379")
	cfg.RedisURL = lookup("REDIS_URL")
	cfg.RedisDB = 0 // This is a constant, not a secret

	cfg.TokenTTL = parseDuration(lookup("TOKEN_TTL"), 24*time.Hour)

	cfg.S3Bucket = lookup("S3_BUCKET_NAME")
	cfg.S3Region = withDefault(lookup("AWS_REGION"), "us-east-1")
	cfg.S3Endpoint = lookup("S3_ENDPOINT")
	cfg.S3PublicURL = lookup("S3_PUBLIC_URL")

	cfg.LogLevel = withDefault(lookup("LOG_LEVEL"), "info")
	cfg.LogPretty = lookup("LOG_PRETTY") == "true"

	cfg.RecipeCreationLimit = parseInt(lookup("RECIPE_CREATION_LIMIT"), 20)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

func parseInt(v string, def int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}
