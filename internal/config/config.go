package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Ledger    LedgerConfig
	Webhook   WebhookConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LedgerConfig holds distribution defaults.
type LedgerConfig struct {
	DefaultPlatformFeePct decimal.Decimal
}

// WebhookConfig holds outbound event delivery configuration. URL empty means
// delivery is disabled; the fernet key encrypts the signing secret at rest.
type WebhookConfig struct {
	URL       string
	FernetKey *fernet.Key
}

// SchedulerConfig holds the cron specs for background jobs.
type SchedulerConfig struct {
	OutboxDispatchSpec string
	PriceSnapshotSpec  string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/songshare_ledger.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		Scheduler: SchedulerConfig{
			OutboxDispatchSpec: getEnv("OUTBOX_DISPATCH_SPEC", "@every 1m"),
			PriceSnapshotSpec:  getEnv("PRICE_SNAPSHOT_SPEC", "10 0 * * *"),
		},
	}

	feePct, err := decimal.NewFromString(getEnv("DEFAULT_PLATFORM_FEE_PCT", "0.10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PLATFORM_FEE_PCT: %w", err)
	}
	if feePct.IsNegative() || feePct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("DEFAULT_PLATFORM_FEE_PCT must be in [0, 1)")
	}
	config.Ledger.DefaultPlatformFeePct = feePct

	config.Webhook.URL = getEnv("WEBHOOK_URL", "")
	if keyStr := getEnv("WEBHOOK_FERNET_KEY", ""); keyStr != "" {
		key, err := fernet.DecodeKey(keyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBHOOK_FERNET_KEY: %w", err)
		}
		config.Webhook.FernetKey = key
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
