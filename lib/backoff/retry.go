// Package backoff retries a failing operation with a randomized,
// exponentially growing wait between attempts, for callers (principally
// cmd/tdworker's cluster-dial bootstrap) that need to keep trying until
// an operation succeeds or their context is cancelled.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Retry is Config{}.Retry with every tuning knob at its default: retry
// forever, report nothing, no upper bound on the backoff interval.
func Retry(ctx context.Context, try func() error) error {
	return Config{}.Retry(ctx, try)
}

// Config tunes one Retry loop.
type Config struct {
	// Report, when non-nil, is called with each failed attempt's error
	// before the next wait. Returning a non-nil error aborts the loop
	// early, and that error becomes Retry's own result -- useful for
	// treating some errors as permanent. A nil Report discards every
	// error silently, matching this module's own rule that nothing
	// reports through a package-global sink: a caller that wants its
	// retries on the structured event trail passes Logged(...) here.
	Report func(error) error

	// MaxWait caps the backoff interval; zero means unbounded.
	MaxWait time.Duration

	mayGrow struct{} // reserved, so new fields don't break existing literals
}

// Retry calls try repeatedly under c's configuration until try succeeds,
// ctx is cancelled, or Report aborts the loop.
func (c Config) Retry(ctx context.Context, try func() error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	wait := time.Duration(1)
	for {
		start := time.Now()
		err := try()
		if err == nil {
			return nil
		}
		elapsed := time.Since(start)

		if c.Report != nil {
			if reportErr := c.Report(err); reportErr != nil {
				return reportErr
			}
		}

		// The failed attempt itself took elapsed time, so never wait
		// less than that before trying again.
		if wait <= elapsed {
			wait = elapsed
		}
		wait += time.Duration(rand.Int63n(int64(wait)))
		if c.MaxWait > 0 && wait > c.MaxWait {
			wait = c.MaxWait
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			continue
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
