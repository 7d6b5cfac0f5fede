package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"telegram_bot_token": "123:abc",
		"fleet_url": "http://fleet.example/available_vms",
		"fleet_secret": "fs",
		"giftcard_url": "http://issuer.example/create-giftcards",
		"giftcard_secret": "gs"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, "testing-bot-store.db", cfg.DBPath)
	assert.Equal(t, int64(60), cfg.PollIntervalSecs)
	assert.Equal(t, int64(86400), cfg.PlusDaySecs)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `{
		"telegram_bot_token": "from-file",
		"fleet_url": "http://fleet.example",
		"giftcard_url": "http://issuer.example",
		"plus_day_secs": 86400
	}`)
	t.Setenv("BOT_TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("BOT_PLUS_DAY_SECS", "3600")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TelegramBotToken)
	assert.Equal(t, int64(3600), cfg.PlusDaySecs)
}

func TestLoadRejectsMissingToken(t *testing.T) {
	path := writeConfig(t, `{
		"fleet_url": "http://fleet.example",
		"giftcard_url": "http://issuer.example"
	}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "telegram_bot_token")
}

func TestLoadRejectsNonPositivePeriods(t *testing.T) {
	path := writeConfig(t, `{
		"telegram_bot_token": "t",
		"fleet_url": "u",
		"giftcard_url": "g",
		"poll_interval_secs": 0
	}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "poll_interval_secs")
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
