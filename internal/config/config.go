// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and CORS.
	BaseURL string

	// UIOrigin is the origin of the external React frontend, allowed by CORS.
	UIOrigin string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Admin holds admin API authentication settings.
	Admin AdminConfig

	// Upload holds global upload settings.
	Upload UploadConfig

	// R2 holds the object-storage (Cloudflare R2 / S3-compatible) backend settings.
	R2 R2Config

	// Telegram holds the bot-channel storage backend settings.
	Telegram TelegramConfig

	// Legacy holds the legacy image-host backend settings.
	Legacy LegacyConfig

	// Moderation holds content-moderation provider settings.
	Moderation ModerationConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields are
// read from separate env vars so container orchestrators can manage each
// independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "imgstash").
	User string

	// Password is the MariaDB password (default: "imgstash").
	Password string

	// Name is the database name (default: "imgstash").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AdminConfig holds admin API authentication settings. The admin dashboard
// itself lives in the external frontend; the server only checks a bearer token.
type AdminConfig struct {
	// TokenHash is a bcrypt hash of the admin token. Preferred in production.
	TokenHash string

	// Token is the plain admin token, compared in constant time. Dev fallback
	// when no hash is configured.
	Token string
}

// UploadConfig holds global upload settings.
type UploadConfig struct {
	// MaxSize is the maximum upload file size in bytes.
	MaxSize int64

	// RatePerMinute is the per-IP upload rate limit.
	RatePerMinute int
}

// R2Config holds the S3-compatible object-storage backend settings.
type R2Config struct {
	// Endpoint is the S3 API endpoint host (e.g., "<account>.r2.cloudflarestorage.com").
	Endpoint string

	// AccessKey and SecretKey are the S3 credentials.
	AccessKey string
	SecretKey string

	// Bucket is the target bucket name.
	Bucket string

	// Prefix is the URL path segment assets are served under (e.g., "file").
	Prefix string

	// PublicBaseURL is the public origin serving the bucket contents.
	PublicBaseURL string

	// UseSSL toggles TLS for the S3 endpoint. Defaults to true.
	UseSSL bool
}

// Configured reports whether the backend has the credentials it needs.
func (c R2Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// TelegramConfig holds the bot-channel storage backend settings.
type TelegramConfig struct {
	// BotToken is the bot API token.
	BotToken string

	// ChatID is the channel/chat the bot uploads into.
	ChatID string

	// APIBaseURL is the bot API origin (default: "https://api.telegram.org").
	// Overridable for tests and self-hosted bot API servers.
	APIBaseURL string

	// Timeout bounds each bot API round-trip.
	Timeout time.Duration
}

// Configured reports whether the backend has the credentials it needs.
func (c TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// LegacyConfig holds the legacy image-host backend settings.
type LegacyConfig struct {
	// Endpoint is the upload URL of the legacy host.
	Endpoint string

	// FileField is the multipart field name the host expects (default: "image").
	FileField string

	// Timeout bounds each upload round-trip.
	Timeout time.Duration
}

// Configured reports whether the backend has the settings it needs.
func (c LegacyConfig) Configured() bool {
	return c.Endpoint != ""
}

// ModerationConfig holds content-moderation provider settings. At most one
// provider is active: a generic templated rating endpoint, or the fixed
// keyed moderation API.
type ModerationConfig struct {
	// RatingEndpoint is a templated URL for a generic rating service. The
	// asset URL is appended as a url= query parameter.
	RatingEndpoint string

	// APIKey selects the fixed third-party moderation API.
	APIKey string

	// Timeout bounds each rating round-trip. A timeout is treated the same
	// as any other moderation failure (rating -1).
	Timeout time.Duration
}

// Configured reports whether any moderation provider is set up.
func (c ModerationConfig) Configured() bool {
	return c.RatingEndpoint != "" || c.APIKey != ""
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		UIOrigin: getEnv("UI_ORIGIN", "http://localhost:3000"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "imgstash"),
			Password:        getEnv("DB_PASSWORD", "imgstash"),
			Name:            getEnv("DB_NAME", "imgstash"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Admin: AdminConfig{
			TokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
			Token:     getEnv("ADMIN_TOKEN", ""),
		},

		Upload: UploadConfig{
			MaxSize:       getEnvInt64("MAX_UPLOAD_SIZE", 20*1024*1024), // 20MB
			RatePerMinute: getEnvInt("UPLOAD_RATE_PER_MINUTE", 30),
		},

		R2: R2Config{
			Endpoint:      getEnv("R2_ENDPOINT", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			Bucket:        getEnv("R2_BUCKET", ""),
			Prefix:        getEnv("R2_PREFIX", "file"),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
			UseSSL:        getEnvBool("R2_USE_SSL", true),
		},

		Telegram: TelegramConfig{
			BotToken:   getEnv("TG_BOT_TOKEN", ""),
			ChatID:     getEnv("TG_CHAT_ID", ""),
			APIBaseURL: getEnv("TG_API_BASE_URL", "https://api.telegram.org"),
			Timeout:    getEnvDuration("TG_TIMEOUT", 30*time.Second),
		},

		Legacy: LegacyConfig{
			Endpoint:  getEnv("LEGACY_UPLOAD_URL", ""),
			FileField: getEnv("LEGACY_FILE_FIELD", "image"),
			Timeout:   getEnvDuration("LEGACY_TIMEOUT", 30*time.Second),
		},

		Moderation: ModerationConfig{
			RatingEndpoint: getEnv("RATING_API_URL", ""),
			APIKey:         getEnv("MODERATE_CONTENT_API_KEY", ""),
			Timeout:        getEnvDuration("MODERATION_TIMEOUT", 10*time.Second),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Admin.Token == "" && cfg.Admin.TokenHash == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN or ADMIN_TOKEN_HASH is required in production")
		}
		if cfg.Admin.TokenHash == "" && len(cfg.Admin.Token) < 24 {
			return nil, fmt.Errorf("ADMIN_TOKEN must be at least 24 characters in production")
		}
	}

	// Provide a dev-only default token so local dev works without .env.
	if cfg.Admin.Token == "" && cfg.Admin.TokenHash == "" {
		cfg.Admin.Token = "dev-admin-token-do-not-use-in-production"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var or returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "30s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
