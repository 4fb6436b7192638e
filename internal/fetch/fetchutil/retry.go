// Package fetchutil holds the retry, backoff and bounded-parallelism
// helpers shared by every source fetcher in internal/fetch.
package fetchutil

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy implements the exponential-backoff retry contract: base 1s,
// factor 2, max 3 attempts, ±25% jitter, retrying transient network
// errors and the configured status codes. 404 is always final.
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	RetryableStatusCodes []int
}

// NewRetryPolicy returns the default policy shared by all fetchers.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatusCodes: []int{
			403, // every 403: headers are not inspected, so rate-limit and permission 403s alike are retried
			408,
			429,
			500,
			502,
			503,
			504,
		},
	}
}

// ShouldRetry decides whether another attempt is worth making.
func (p *RetryPolicy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= p.MaxAttempts-1 {
		return false
	}
	if statusCode == 404 {
		return false
	}
	if statusCode > 0 {
		for _, code := range p.RetryableStatusCodes {
			if statusCode == code {
				return true
			}
		}
		if statusCode >= 400 {
			return false
		}
	}
	return err != nil && isRetryableError(err)
}

// Backoff returns the jittered backoff duration for the given attempt
// (0-indexed).
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff) * pow(p.BackoffMultiplier, float64(attempt))
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter
	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}
	return time.Duration(backoff)
}

// Do executes fn, retrying on transient failure per the policy. fn
// returns an HTTP-like status code (0 if not applicable) alongside any
// error.
func (p *RetryPolicy) Do(ctx context.Context, logger arbor.ILogger, name string, fn func() (int, error)) (int, error) {
	var statusCode int
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		statusCode, lastErr = fn()
		if lastErr == nil && !p.isRetryableStatusCode(statusCode) {
			return statusCode, nil
		}
		if !p.ShouldRetry(attempt, statusCode, lastErr) {
			return statusCode, lastErr
		}

		backoff := p.Backoff(attempt)
		if logger != nil {
			logger.Debug().
				Str("fetcher", name).
				Int("attempt", attempt+1).
				Int("status_code", statusCode).
				Err(lastErr).
				Dur("backoff", backoff).
				Msg("retrying after transient fetch error")
		}

		select {
		case <-ctx.Done():
			return statusCode, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return statusCode, lastErr
}

func (p *RetryPolicy) isRetryableStatusCode(statusCode int) bool {
	for _, code := range p.RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return false
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
