package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Jitter applies a factor between 0.85 and 1.15 to the duration.
func Jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.85 + rand.Float64()*0.3))
}

// Wait blocks for the jittered duration or until the context is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(Jitter(d))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn up to retries+1 times, waiting between attempts while
// retryable reports true for the returned error.
func Retry(ctx context.Context, retries int, wait time.Duration, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || attempt >= retries || !retryable(err) {
			return err
		}
		if werr := Wait(ctx, wait); werr != nil {
			return err
		}
	}
}
