package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the app.
type Config struct {
	TelegramToken string
	OwnerChatID   int64
	DatabaseURL   string
	StorageKey    string
	DigestTime    string
	Location      *time.Location
}

// Load reads configuration from an optional .env file and environment
// variables with sane defaults. Variables already set in the environment
// win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorageKey:    strings.TrimSpace(os.Getenv("STORAGE_KEY")),
		DigestTime:    "08:00",
		Location:      time.Local,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskflow.db"
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "@taskflow_tasks"
	}
	if raw, ok := os.LookupEnv("DIGEST_TIME"); ok {
		cfg.DigestTime = strings.TrimSpace(raw)
	}

	if name := strings.TrimSpace(os.Getenv("TZ_NAME")); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return cfg, fmt.Errorf("TZ_NAME: %w", err)
		}
		cfg.Location = loc
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	rawChat := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	if rawChat == "" {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	chatID, err := strconv.ParseInt(rawChat, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be a number: %w", err)
	}
	cfg.OwnerChatID = chatID

	return cfg, nil
}
