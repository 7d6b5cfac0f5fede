package model

import (
	"time"
)

// AgentRecord is the per-VM ledger row. The three counters are monotonic:
// 0 <= ClaimedSecs <= NotifiedSecs <= RawUptimeSecs at every observable
// point. BoundChat is the only field that moves both ways; it toggles
// between a Telegram chat id and nil, and the counters survive unbinding.
type AgentRecord struct {
	AgentID   string `gorm:"primaryKey"` // externally assigned VM id
	CreatedAt time.Time
	UpdatedAt time.Time

	// Telegram chat this VM reports to. Nil means unregistered.
	BoundChat *int64 `gorm:"uniqueIndex"`

	// Counters, in seconds of reported uptime.
	RawUptimeSecs int64 `gorm:"default:0"`
	NotifiedSecs  int64 `gorm:"default:0"`
	ClaimedSecs   int64 `gorm:"default:0"`
}
