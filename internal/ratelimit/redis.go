package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript runs the bucket math atomically per key on the redis side, so
// concurrent instances never interleave read-modify-write cycles.
var takeScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local tier = ARGV[4]
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill', 'tier')
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil or state[3] ~= tier then
  tokens = max
else
  tokens = math.min(max, tokens + (now - last) * rate)
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill', now, 'tier', tier)
redis.call('EXPIRE', KEYS[1], ttl)

return {allowed, tostring(tokens)}
`)

// RedisStore shares one rate limit across all service instances. Drop-in for
// MemoryStore when the service scales horizontally.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Take(ctx context.Context, key string, tier Tier) (Decision, error) {
	now := s.now()
	ttl := int((3 * LargestWindow()).Seconds())

	res, err := takeScript.Run(ctx, s.client, []string{"ratelimit:" + key},
		tier.MaxTokens,
		tier.RefillPerSec,
		float64(now.UnixMicro())/1e6,
		tier.Name,
		ttl,
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("taking token: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected script result: %v", res)
	}

	allowed, _ := res[0].(int64)
	var tokens float64
	if str, ok := res[1].(string); ok {
		fmt.Sscanf(str, "%f", &tokens)
	}

	d := Decision{
		Allowed:   allowed == 1,
		Limit:     int(tier.MaxTokens),
		Remaining: int(math.Floor(tokens)),
		ResetAt:   now.Add(time.Duration((tier.MaxTokens - tokens) / tier.RefillPerSec * float64(time.Second))),
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration((1 - tokens) / tier.RefillPerSec * float64(time.Second))
	}
	return d, nil
}
