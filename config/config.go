package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all gateway configuration values, read once at startup.
type Config struct {
	// Server
	Addr            string
	Env             string // WORKER_ENV: production, staging, dev, ...
	GracefulTimeout time.Duration

	// Admin auth
	AdminToken string

	// Store credentials (C1/C2)
	GoogleClientEmail   string
	GooglePrivateKey    string
	SheetsSpreadsheetID string

	// Outbound timeouts
	StoreTimeout time.Duration // hard timeout per store/identity call

	// Write-lock contention
	LockWait time.Duration

	// Redis (optional shared cache for token + bundle ETags)
	RedisURL string

	// Body limits
	MaxBodyBytes int64

	// Logging
	LogLevel string // DEBUG_LEVEL: debug, info, warn, error
}

// Load reads configuration from environment variables and an optional
// .env file for local development.
func Load() *Config {
	_ = godotenv.Load()

	gracefulSec := getEnvInt("GATEWAY_GRACEFUL_TIMEOUT_SEC", 15)
	storeTimeoutSec := getEnvInt("GATEWAY_STORE_TIMEOUT_SEC", 30)
	lockWaitSec := getEnvInt("GATEWAY_LOCK_WAIT_SEC", 10)

	env := getEnv("WORKER_ENV", "dev")
	defaultLevel := "debug"
	if env == "production" || env == "staging" {
		defaultLevel = "info"
	}

	cfg := &Config{
		Addr:                getEnv("GATEWAY_ADDR", ":8080"),
		Env:                 env,
		GracefulTimeout:     time.Duration(gracefulSec) * time.Second,
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		GoogleClientEmail:   getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:    getEnv("GOOGLE_PRIVATE_KEY", ""),
		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		StoreTimeout:        time.Duration(storeTimeoutSec) * time.Second,
		LockWait:            time.Duration(lockWaitSec) * time.Second,
		RedisURL:            getEnv("REDIS_URL", ""),
		MaxBodyBytes:        int64(getEnvInt("GATEWAY_MAX_BODY_BYTES", 1*1024*1024)),
		LogLevel:            getEnv("DEBUG_LEVEL", defaultLevel),
	}
	return cfg
}

// IsDev returns true when running outside production/staging.
func (c *Config) IsDev() bool {
	return c.Env != "production" && c.Env != "staging"
}

// IsConfigured reports whether the store adapter has everything it
// needs to talk to the backing spreadsheet.
func (c *Config) IsConfigured() bool {
	return c.GoogleClientEmail != "" && c.GooglePrivateKey != "" && c.SheetsSpreadsheetID != ""
}

// AnalyticsEnv maps WORKER_ENV onto the analytics record's closed env set.
func (c *Config) AnalyticsEnv() string {
	switch c.Env {
	case "production":
		return "prod"
	case "staging":
		return "stg"
	default:
		return "dev"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
