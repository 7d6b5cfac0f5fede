package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"testing-vm-bot/binder"
	"testing-vm-bot/bot"
	"testing-vm-bot/config"
	"testing-vm-bot/model"
	"testing-vm-bot/notify"
	"testing-vm-bot/reward"
	"testing-vm-bot/store"
	"testing-vm-bot/uptime"

	"github.com/glebarez/sqlite"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("c", "config.json", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		slog.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&model.AgentRecord{}); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	recs := store.NewGormStore(db)

	b, err := bot.NewBot(cfg.TelegramBotToken, recs, &binder.Binder{Store: recs}, cfg.PlusDaySecs)
	if err != nil {
		slog.Error("start telegram bot", "error", err)
		os.Exit(1)
	}

	b.Claims = &reward.Processor{
		Store:         recs,
		Issuer:        reward.NewClient(cfg.GiftCardURL, cfg.GiftCardSecret),
		Sender:        b,
		ThresholdSecs: cfg.PlusDaySecs,
	}

	collector := uptime.NewCollector(
		recs,
		uptime.NewClient(cfg.FleetURL, cfg.FleetSecret),
		time.Duration(cfg.PollIntervalSecs)*time.Second,
	)
	notifier := &notify.Notifier{
		Store:         recs,
		Sender:        b,
		ThresholdSecs: cfg.PlusDaySecs,
	}

	// Scheduler. The poll schedule and the credited tick unit share one
	// config value; the notifier sweeps once a day like the accrual unit.
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %ds", cfg.PollIntervalSecs), collector.Tick); err != nil {
		slog.Error("schedule uptime collector", "error", err)
		os.Exit(1)
	}
	if _, err := c.AddFunc("@daily", notifier.Tick); err != nil {
		slog.Error("schedule entitlement notifier", "error", err)
		os.Exit(1)
	}
	c.Start()

	slog.Info("bot started", "db", cfg.DBPath, "poll_interval_secs", cfg.PollIntervalSecs)
	b.Start()
}
