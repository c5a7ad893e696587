package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCooldown(window time.Duration) (*PairCooldown, *time.Time) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPairCooldown(window)
	p.now = func() time.Time { return clock }
	return p, &clock
}

func TestCooldownBlocksInsideWindow(t *testing.T) {
	p, clock := newTestCooldown(time.Hour)

	ok, _ := p.Allow("pair")
	assert.True(t, ok)

	*clock = clock.Add(30 * time.Minute)
	ok, retryAfter := p.Allow("pair")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, retryAfter)
}

func TestCooldownReopensAfterWindow(t *testing.T) {
	p, clock := newTestCooldown(time.Hour)

	ok, _ := p.Allow("pair")
	assert.True(t, ok)

	*clock = clock.Add(61 * time.Minute)
	ok, _ = p.Allow("pair")
	assert.True(t, ok)
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	p, _ := newTestCooldown(time.Hour)

	ok, _ := p.Allow("a")
	assert.True(t, ok)
	ok, _ = p.Allow("b")
	assert.True(t, ok)
}

func TestCooldownForgetReopensImmediately(t *testing.T) {
	p, _ := newTestCooldown(time.Hour)

	ok, _ := p.Allow("pair")
	assert.True(t, ok)

	p.Forget("pair")
	ok, _ = p.Allow("pair")
	assert.True(t, ok)
}

func TestCooldownSweepDropsExpiredEntries(t *testing.T) {
	p, clock := newTestCooldown(time.Hour)

	p.Allow("old")
	*clock = clock.Add(3 * time.Hour)
	p.Allow("recent")

	p.Sweep()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.NotContains(t, p.last, "old")
	assert.Contains(t, p.last, "recent")
}
