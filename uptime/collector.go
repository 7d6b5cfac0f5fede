package uptime

import (
	"log/slog"
	"time"

	"testing-vm-bot/store"
)

// Source is the external fleet-status endpoint.
type Source interface {
	ActiveAgents() ([]string, error)
}

// Collector advances the raw uptime counter of every VM the fleet reports
// as up, once per tick. A VM absent from a tick simply does not advance
// that tick; a missed tick is lost for good, so the raw counter is a
// best-effort under-count of true wall-clock uptime.
type Collector struct {
	Store    store.RecordStore
	Source   Source
	TickUnit time.Duration
}

func NewCollector(st store.RecordStore, src Source, tickUnit time.Duration) *Collector {
	return &Collector{Store: st, Source: src, TickUnit: tickUnit}
}

// Tick runs one collection pass. A fetch or parse failure skips the whole
// pass before any mutation, so either the full reported set advances or
// none of it does. The next scheduled tick retries.
func (c *Collector) Tick() {
	ids, err := c.Source.ActiveAgents()
	if err != nil {
		slog.Error("uptime poll failed, skipping tick", "error", err)
		return
	}
	if err := c.Store.AdvanceRawBatch(ids, int64(c.TickUnit.Seconds())); err != nil {
		slog.Error("uptime tick not applied", "agents", len(ids), "error", err)
		return
	}
	slog.Debug("uptime tick applied", "agents", len(ids))
}
