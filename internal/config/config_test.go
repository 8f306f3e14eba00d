package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "STORAGE_KEY", "DIGEST_TIME", "TZ_NAME"}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, int64(12345), cfg.OwnerChatID)
	assert.Equal(t, "taskflow.db", cfg.DatabaseURL)
	assert.Equal(t, "@taskflow_tasks", cfg.StorageKey)
	assert.Equal(t, "08:00", cfg.DigestTime)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_KEY", "from-env")

	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"TELEGRAM_TOKEN=file-token\n"+
			"TELEGRAM_CHAT_ID=-100500\n"+
			"DATABASE_URL=data/tasks.db\n"+
			"STORAGE_KEY=from-file\n"+
			"DIGEST_TIME=\n"+
			"TZ_NAME=UTC\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TelegramToken)
	assert.Equal(t, int64(-100500), cfg.OwnerChatID)
	assert.Equal(t, "data/tasks.db", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.StorageKey, "environment wins over the file")
	assert.Empty(t, cfg.DigestTime, "an empty DIGEST_TIME disables the digest")
	assert.Equal(t, "UTC", cfg.Location.String())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load(missingFile(t))
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")

	t.Setenv("TELEGRAM_TOKEN", "token")
	_, err = Load(missingFile(t))
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID is required")

	t.Setenv("TELEGRAM_CHAT_ID", "me")
	_, err = Load(missingFile(t))
	assert.ErrorContains(t, err, "must be a number")

	t.Setenv("TELEGRAM_CHAT_ID", "1")
	t.Setenv("TZ_NAME", "Mars/Olympus")
	_, err = Load(missingFile(t))
	assert.ErrorContains(t, err, "TZ_NAME")
}
