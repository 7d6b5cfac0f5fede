// Package notify converts accrued uptime into notified entitlement.
package notify

import (
	"log/slog"

	"testing-vm-bot/store"
)

const earnedDayMessage = "Thank you for running a testing VM! You earned another day of Plus. Use /claim to redeem your days. / 感谢您运行测试 VM！您又获得了一天 Plus。使用 /claim 领取您的天数。"

// Sender delivers a text message to a Telegram chat.
type Sender interface {
	Send(chat int64, text string) error
}

// Notifier scans for VMs whose raw uptime has out-paced their notified
// counter by a full day and sends one message per earned day. The counter
// advances only after every message of the batch was accepted by the
// transport; a partial delivery leaves it alone, so the next tick
// recomputes the same batch and re-sends. Duplicate notifications on
// retry are the lesser evil versus silently dropped entitlement.
type Notifier struct {
	Store         store.RecordStore
	Sender        Sender
	ThresholdSecs int64
}

// Tick runs one notification pass. Records with no bound chat never show
// up in the scan; their entitlement keeps accruing in the raw counter and
// is reported in full on the first tick after registration.
func (n *Notifier) Tick() {
	recs, err := n.Store.ListNotifiable(n.ThresholdSecs)
	if err != nil {
		slog.Error("entitlement scan failed", "error", err)
		return
	}

	for _, rec := range recs {
		if rec.BoundChat == nil {
			continue
		}
		chat := *rec.BoundChat
		earned := (rec.RawUptimeSecs - rec.NotifiedSecs) / n.ThresholdSecs
		if earned <= 0 {
			continue
		}

		if !n.sendBatch(chat, earned) {
			continue
		}
		if err := n.Store.AdvanceNotified(chat, earned*n.ThresholdSecs); err != nil {
			slog.Error("notified counter not advanced", "agent", rec.AgentID, "chat", chat, "error", err)
			continue
		}
		slog.Info("entitlement notified", "agent", rec.AgentID, "chat", chat, "days", earned)
	}
}

func (n *Notifier) sendBatch(chat int64, earned int64) bool {
	for i := int64(0); i < earned; i++ {
		if err := n.Sender.Send(chat, earnedDayMessage); err != nil {
			slog.Warn("entitlement notification failed", "chat", chat, "delivered", i, "earned", earned, "error", err)
			return false
		}
	}
	return true
}
