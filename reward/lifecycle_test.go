package reward

import (
	"testing"
	"time"

	"testing-vm-bot/binder"
	"testing-vm-bot/notify"
	"testing-vm-bot/uptime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFleet struct {
	ids []string
}

func (f *fakeFleet) ActiveAgents() ([]string, error) {
	return f.ids, nil
}

type countingSender struct {
	texts []string
}

func (c *countingSender) Send(chat int64, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

// Full accrual-to-claim pass: a day of one-minute collector ticks earns
// exactly one Plus day, which is notified once and claimed once.
func TestAccrualToClaimLifecycle(t *testing.T) {
	s := newTestStore(t)
	chatSink := &countingSender{}

	collector := uptime.NewCollector(s, &fakeFleet{ids: []string{"vm-a"}}, time.Minute)
	notifier := &notify.Notifier{Store: s, Sender: chatSink, ThresholdSecs: day}
	issuer := &fakeIssuer{card: "GIFT-abc"}
	claims := &Processor{Store: s, Issuer: issuer, Sender: chatSink, ThresholdSecs: day}
	bind := &binder.Binder{Store: s}

	// The VM reports uptime before anyone registers it.
	for i := 0; i < 720; i++ {
		collector.Tick()
	}
	notifier.Tick()
	assert.Empty(t, chatSink.texts, "unbound VMs are never notified")

	require.NoError(t, bind.Register(100, "vm-a"))

	// The rest of the day accrues after registration.
	for i := 0; i < 720; i++ {
		collector.Tick()
	}

	rec, err := s.FindByChat(100)
	require.NoError(t, err)
	require.Equal(t, day, rec.RawUptimeSecs)

	notifier.Tick()
	require.Len(t, chatSink.texts, 1, "exactly one earned-day notification")

	require.NoError(t, claims.Claim(100))
	require.Len(t, chatSink.texts, 2)
	assert.Equal(t, "GIFT-abc", chatSink.texts[1])

	rec, err = s.FindByChat(100)
	require.NoError(t, err)
	assert.Equal(t, day, rec.ClaimedSecs)
	assert.Equal(t, day, rec.NotifiedSecs)
	assert.Equal(t, day, rec.RawUptimeSecs)

	assert.ErrorIs(t, claims.Claim(100), ErrNothingToClaim)
	assert.Equal(t, 1, issuer.calls)
}
