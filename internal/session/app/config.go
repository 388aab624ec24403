package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL  string // Required: coaching backend base URL
	VaultSecret string // Required: secret protecting the token vault

	VaultFile     string        // Optional: path to the encrypted token vault (default: ./session.vault)
	DatabaseFile  string        // Optional: path to SQLite database file (default: ./session.db)
	Env           string        // Environment (dev, staging, prod) (default: dev)
	LogLevel      string        // Log level (debug, info, warn, error) (default: info)
	LogFormat     string        // Log format (json, text) (default: json)
	HTTPTimeout   time.Duration // Per-request timeout (default: 15s)
	ReminderDelay time.Duration // Delay before the day-one reminder check (default: 5s)
	MorningHour   int           // Earliest local hour for the reminder prompt (default: 9)
}

func LoadConfig() Config {
	return Config{
		APIBaseURL:    getEnvOrDefault("STILLWATER_API_URL", "http://localhost:8080"),
		VaultSecret:   os.Getenv("STILLWATER_VAULT_SECRET"),
		VaultFile:     getEnvOrDefault("STILLWATER_VAULT_FILE", "session.vault"),
		DatabaseFile:  getEnvOrDefault("STILLWATER_DATABASE_FILE", "session.db"),
		Env:           getEnvOrDefault("ENV", "dev"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "json"),
		HTTPTimeout:   getEnvDurationOrDefault("STILLWATER_HTTP_TIMEOUT", 15*time.Second),
		ReminderDelay: getEnvDurationOrDefault("STILLWATER_REMINDER_DELAY", 5*time.Second),
		MorningHour:   getEnvIntOrDefault("STILLWATER_MORNING_HOUR", 9),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
