package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimGateRejectsConcurrentSecondClaim(t *testing.T) {
	b := &Bot{inflight: make(map[int64]bool)}

	assert.True(t, b.beginClaim(100))
	assert.False(t, b.beginClaim(100), "second claim for the same chat must be rejected, not queued")

	// A different chat is unaffected.
	assert.True(t, b.beginClaim(200))

	b.endClaim(100)
	assert.True(t, b.beginClaim(100), "slot frees once the claim settles")
}

func TestMenuMarkupDependsOnRegistration(t *testing.T) {
	registered := menuMarkup(true)
	assert.Len(t, registered.InlineKeyboard, 4)

	unregistered := menuMarkup(false)
	assert.Len(t, unregistered.InlineKeyboard, 1)
}
