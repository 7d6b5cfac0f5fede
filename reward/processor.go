package reward

import (
	"errors"
	"fmt"
	"log/slog"

	"testing-vm-bot/store"
)

var (
	// ErrNothingToClaim means the chat's notified entitlement is fully
	// claimed already. A normal outcome, not a failure.
	ErrNothingToClaim = errors.New("reward: nothing to claim")

	// ErrRetryLater means the issuer or the chat transport failed before
	// the claim settled. No counter moved; the user can just try again.
	ErrRetryLater = errors.New("reward: temporarily unavailable, retry later")
)

// Issuer is the external gift-card backend.
type Issuer interface {
	CreateGiftCard(days, numCards int64) (string, error)
}

// Sender delivers a text message to a Telegram chat.
type Sender interface {
	Send(chat int64, text string) error
}

// Processor settles owner-initiated claims. The claimed counter advances
// only after the issuer call succeeded and the card text reached the
// chat; any failure before that leaves the ledger untouched, so
// entitlement is preserved and never double-spent.
type Processor struct {
	Store         store.RecordStore
	Issuer        Issuer
	Sender        Sender
	ThresholdSecs int64
}

// Claim redeems all unclaimed Plus days for the chat.
func (p *Processor) Claim(chat int64) error {
	rec, err := p.Store.FindByChat(chat)
	if err != nil {
		return err
	}

	days := (rec.NotifiedSecs - rec.ClaimedSecs) / p.ThresholdSecs
	if days <= 0 {
		return ErrNothingToClaim
	}

	card, err := p.Issuer.CreateGiftCard(days, 1)
	if err != nil {
		slog.Error("gift card issue failed", "chat", chat, "days", days, "error", err)
		return ErrRetryLater
	}

	if err := p.Sender.Send(chat, card); err != nil {
		// The card was issued but never reached the user. Leaving the
		// counter alone lets the next claim re-issue instead of losing
		// the entitlement.
		slog.Error("gift card delivery failed", "chat", chat, "error", err)
		return ErrRetryLater
	}

	if err := p.Store.AdvanceClaimed(chat, days*p.ThresholdSecs); err != nil {
		return fmt.Errorf("advance claimed counter: %w", err)
	}
	slog.Info("claim settled", "chat", chat, "days", days)
	return nil
}
