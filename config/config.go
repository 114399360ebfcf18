// Package config loads server configuration from the environment.
// A .env file is honored when present; every value has a default so the
// server runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Export ExportConfig
}

type AppConfig struct {
	Port     int
	DBPath   string
	LogLevel string
}

type ExportConfig struct {
	Dir string
}

func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	return &Config{
		App: AppConfig{
			Port:     port,
			DBPath:   getEnv("DB_PATH", "payroll.db"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "./reports"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
