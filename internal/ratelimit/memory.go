package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

type bucket struct {
	mu         sync.Mutex
	tier       string
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// MemoryStore is the process-local RateStore. Per-key locking: the outer map
// lock is held only to find or insert a bucket, never across the bucket math.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}

	// Sweep idle entries so the map stays bounded
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			s.sweep(3 * LargestWindow())
		}
	}()

	return s
}

func (s *MemoryStore) getBucket(key string) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[key]; ok {
		return b
	}
	b = &bucket{}
	s.buckets[key] = b
	return b
}

// Take implements the token bucket: refill since last call, then consume one
// token if available. A tier change resets the bucket to the new tier's max
// rather than prorating the old value.
func (s *MemoryStore) Take(_ context.Context, key string, tier Tier) (Decision, error) {
	b := s.getBucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := s.now()

	if b.lastRefill.IsZero() || b.tier != tier.Name {
		b.tokens = tier.MaxTokens
	} else {
		elapsed := now.Sub(b.lastRefill).Seconds()
		b.tokens = math.Min(tier.MaxTokens, b.tokens+elapsed*tier.RefillPerSec)
	}
	b.tier = tier.Name
	b.lastRefill = now
	b.lastSeen = now

	d := Decision{Limit: int(tier.MaxTokens)}

	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else {
		d.RetryAfter = time.Duration((1 - b.tokens) / tier.RefillPerSec * float64(time.Second))
	}

	d.Remaining = int(math.Floor(b.tokens))
	d.ResetAt = now.Add(time.Duration((tier.MaxTokens - b.tokens) / tier.RefillPerSec * float64(time.Second)))

	return d, nil
}

func (s *MemoryStore) sweep(maxIdle time.Duration) {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(s.buckets, key)
		}
	}
}
