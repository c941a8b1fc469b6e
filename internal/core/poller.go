package core

import (
	"context"
	"time"
)

// PollResult reports how a bounded readiness poll ended.
type PollResult int

const (
	// PollReady means the probe succeeded within the allowed attempts.
	PollReady PollResult = iota
	// PollTimedOut means every attempt failed or the context expired.
	// It is a value, not an error: the caller decides whether an
	// unconfirmed deployment is fatal.
	PollTimedOut
)

// Probe is one readiness check, e.g. "is the container running".
type Probe func(ctx context.Context) bool

// PollHealth calls probe up to maxAttempts times, sleeping interval
// between attempts, and returns PollReady on the first success. The
// sleep is interruptible: a cancelled or expired context ends the poll
// immediately with PollTimedOut.
func PollHealth(ctx context.Context, probe Probe, maxAttempts int, interval time.Duration) PollResult {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return PollTimedOut
		}
		if probe(ctx) {
			return PollReady
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return PollTimedOut
		case <-time.After(interval):
		}
	}
	return PollTimedOut
}
