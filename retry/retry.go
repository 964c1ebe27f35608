// Package retry polls a boolean check at a fixed interval. intentbench
// retries exactly one thing, the readiness probe, and never gives up on
// it, so there is no attempt limit and no backoff.
//
//	err := retry.Until(ctx, 5*time.Second, client.Ready, nil)
package retry

import (
	"context"
	"time"
)

// WaitFunc is notified before each sleep with the number of the attempt
// that just failed (starting at 1) and the upcoming wait.
type WaitFunc func(attempt int, wait time.Duration)

// Until calls check every interval until it reports true or ctx is done.
// It returns nil on success or the context error.
func Until(ctx context.Context, interval time.Duration, check func(context.Context) bool, onWait WaitFunc) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if check(ctx) {
			return nil
		}
		if onWait != nil {
			onWait(attempt, interval)
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
