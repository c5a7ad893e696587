package matching

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a candidate or job id resolves to nothing
var ErrNotFound = errors.New("not found")

// RateLimitedError is returned by Refresh when the pair is still inside its
// cooldown window. Callers surface RetryAfter instead of silently retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("recomputation rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}
