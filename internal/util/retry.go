package util

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
)

// RetryWithBackoff calls fn up to maxRetries+1 times. fn receives the
// 0-indexed attempt number and returns nil on success. Waits between attempts
// double from retryBaseDelay up to retryMaxDelay, with up to 50% random
// jitter added so simultaneous tracker checks do not hit a rate-limited
// site in lockstep. A cancelled context ends the loop with the context error.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := retryBaseDelay << attempt
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
		delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
