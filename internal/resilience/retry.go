// Package resilience holds the retry and rate-limit wrappers used around
// provider calls.
package resilience

import (
	"context"
	"time"

	"litreview/internal/config"
	"litreview/internal/providers"
)

// Policy retries rate-limited calls with exponential backoff. Tries counts
// every attempt including the last one, which runs without a wait after it.
type Policy struct {
	Tries   int
	Delay   time.Duration
	Backoff float64

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func DefaultPolicy() Policy {
	return Policy{Tries: 4, Delay: 3 * time.Second, Backoff: 2}
}

func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{Tries: cfg.Tries, Delay: cfg.Delay, Backoff: cfg.Backoff}
}

// Do runs fn until it succeeds, fails with anything other than a rate limit,
// or the attempts run out. Waits grow as Delay, Delay*Backoff, ...
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	tries := p.Tries
	if tries < 1 {
		tries = 1
	}
	backoff := p.Backoff
	if backoff < 1 {
		backoff = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	wait := p.Delay
	for attempt := 1; attempt < tries; attempt++ {
		out, err := fn(ctx)
		if err == nil || !providers.IsRateLimited(err) {
			return out, err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			var zero T
			return zero, serr
		}
		wait = time.Duration(float64(wait) * backoff)
	}
	return fn(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
