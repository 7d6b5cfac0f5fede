// Package config loads process configuration from a JSON file with
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the bot needs at startup. Values come from the
// JSON file named by -c, with BOT_* environment variables taking
// precedence over the file.
type Config struct {
	TelegramBotToken string `json:"telegram_bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`

	// Fleet-status endpoint reporting the currently-up testing VMs.
	FleetURL    string `json:"fleet_url" envconfig:"FLEET_URL"`
	FleetSecret string `json:"fleet_secret" envconfig:"FLEET_SECRET"`

	// Gift-card issuing backend.
	GiftCardURL    string `json:"giftcard_url" envconfig:"GIFTCARD_URL"`
	GiftCardSecret string `json:"giftcard_secret" envconfig:"GIFTCARD_SECRET"`

	DBPath string `json:"db_path" envconfig:"DB_PATH"`

	// PollIntervalSecs is both the fleet poll period and the uptime
	// credited per successful poll, so metering stays honest.
	PollIntervalSecs int64 `json:"poll_interval_secs" envconfig:"POLL_INTERVAL_SECS"`

	// PlusDaySecs is the accrued uptime that converts to one Plus day.
	PlusDaySecs int64 `json:"plus_day_secs" envconfig:"PLUS_DAY_SECS"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DBPath:           "testing-bot-store.db",
		PollIntervalSecs: 60,
		PlusDaySecs:      86400,
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("BOT", cfg); err != nil {
		return nil, fmt.Errorf("read environment overrides: %w", err)
	}

	switch {
	case cfg.TelegramBotToken == "":
		return nil, fmt.Errorf("telegram_bot_token is required")
	case cfg.FleetURL == "":
		return nil, fmt.Errorf("fleet_url is required")
	case cfg.GiftCardURL == "":
		return nil, fmt.Errorf("giftcard_url is required")
	case cfg.PollIntervalSecs <= 0:
		return nil, fmt.Errorf("poll_interval_secs must be positive")
	case cfg.PlusDaySecs <= 0:
		return nil, fmt.Errorf("plus_day_secs must be positive")
	}
	return cfg, nil
}
