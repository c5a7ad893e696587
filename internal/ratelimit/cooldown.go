package ratelimit

import (
	"sync"
	"time"
)

// PairCooldown is the single-token special case of the bucket: one timestamp
// per key, binary allowed/blocked inside a fixed window. The lifecycle
// manager uses it to collapse overlapping batch runs onto at most one fresh
// computation per pair; the durable cooldown lives in the match store.
type PairCooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewPairCooldown(window time.Duration) *PairCooldown {
	return NewPairCooldownWithClock(window, time.Now)
}

// NewPairCooldownWithClock lets the caller supply the clock, so cooldown
// interplay can be driven by the same clock as the code holding the guard
func NewPairCooldownWithClock(window time.Duration, now func() time.Time) *PairCooldown {
	p := &PairCooldown{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}

	// Sweep expired entries so the map stays bounded
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			p.Sweep()
		}
	}()

	return p
}

// Allow records the attempt and reports whether the key is outside its
// window. When blocked, retryAfter is the wait until the window reopens.
func (p *PairCooldown) Allow(key string) (bool, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if at, ok := p.last[key]; ok {
		if remaining := p.window - now.Sub(at); remaining > 0 {
			return false, remaining
		}
	}
	p.last[key] = now
	return true, 0
}

// Forget reopens the window for a key, e.g. after a computation failed and
// should be retryable immediately
func (p *PairCooldown) Forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.last, key)
}

// Sweep drops entries whose window has long passed
func (p *PairCooldown) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-2 * p.window)
	for key, at := range p.last {
		if at.Before(cutoff) {
			delete(p.last, key)
		}
	}
}
