package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUpstreamUnavailable marks an outbound call that failed after exhausting
// all retries. Callers decide whether this is fatal; narrative enrichment
// treats it as degraded mode, not an error.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Response is a fully-drained HTTP response. Draining inside the call layer
// keeps the per-attempt timeout in force while the body is read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Caller wraps any outbound HTTP call with a per-attempt timeout, retry with
// linear backoff, and retryable/non-retryable classification. It has no
// knowledge of what it is calling.
type Caller struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
}

func NewCaller(maxRetries int, baseDelay, perTryTimeout time.Duration) *Caller {
	return &Caller{
		client:     &http.Client{},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		timeout:    perTryTimeout,
	}
}

// retryable reports whether a status code is worth another attempt.
// Client errors (except 429) cannot succeed on retry and waste the budget.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// Do runs the request built by newRequest, retrying transient failures.
// newRequest is called once per attempt so each request carries that
// attempt's deadline. After retries are exhausted the last response is
// returned as-is, or the last network error wrapped in ErrUpstreamUnavailable.
func (c *Caller) Do(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) (*Response, error) {
	var lastErr error
	var lastResp *Response

	attempts := c.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.attempt(ctx, newRequest)
		if err != nil {
			// Network-level failure, including per-attempt timeout: retryable
			lastErr = err
			lastResp = nil
			log.Warn().Err(err).Int("attempt", attempt).Int("maxAttempts", attempts).
				Msg("Outbound call failed")
		} else if retryable(resp.StatusCode) {
			lastErr = nil
			lastResp = resp
			log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).
				Int("maxAttempts", attempts).Msg("Outbound call returned retryable status")
		} else {
			return resp, nil
		}

		if attempt == attempts {
			break
		}
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

// attempt performs one bounded request and drains the body
func (c *Caller) attempt(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := newRequest(attemptCtx)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// backoff waits baseDelay × attempt, honoring cancellation
func (c *Caller) backoff(ctx context.Context, attempt int) error {
	select {
	case <-time.After(c.baseDelay * time.Duration(attempt)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
