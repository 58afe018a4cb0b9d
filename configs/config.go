// Package configs loads service configuration from the environment, with an
// optional .env file for local development.
package configs

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	ServerPort            string
	DBPath                string
	JWTSecret             string
	TokenDuration         time.Duration
	DirectoryURL          string
	DirectoryAPIKey       string
	DirectoryTimeout      time.Duration
	StatusRefreshInterval time.Duration
}

// Load reads the optional .env file and resolves the configuration from the
// environment with defaults suitable for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	return Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		DBPath:                getEnv("DB_PATH", "moneylending.db"),
		JWTSecret:             getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenDuration:         getDuration("TOKEN_DURATION_HOURS", 24) * time.Hour,
		DirectoryURL:          getEnv("DIRECTORY_URL", ""),
		DirectoryAPIKey:       getEnv("DIRECTORY_API_KEY", ""),
		DirectoryTimeout:      getDuration("DIRECTORY_TIMEOUT_SECONDS", 5) * time.Second,
		StatusRefreshInterval: getDuration("STATUS_REFRESH_INTERVAL_MINUTES", 60) * time.Minute,
	}
}

// getEnv fetches the value of an environment variable or returns a default.
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue int) time.Duration {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil || v <= 0 {
		return time.Duration(defaultValue)
	}
	return time.Duration(v)
}
