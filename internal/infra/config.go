package infra

import (
	"fmt"
	"os"
	"strconv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	TelegramBotToken  string
	GoogleProjectID   string
	GoogleLocation    string
	GoogleCredentials string
	DatabasePath      string
	StorageDir        string
	VideoQuotaLimit   int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Missing required values fail loading so the process
// never starts half-configured.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		GoogleProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		GoogleLocation:    getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		DatabasePath:      getEnv("DATABASE_PATH", "database.db"),
		StorageDir:        os.Getenv("STORAGE_DIR"),
		VideoQuotaLimit:   getEnvInt("VIDEO_QUOTA_LIMIT", 70),
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.GoogleProjectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required")
	}

	if cfg.GoogleCredentials == "" {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
