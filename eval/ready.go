package eval

import (
	"context"
	"strconv"
	"time"

	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/logging"
	"github.com/greynewell/intentbench/retry"
	"github.com/greynewell/intentbench/trace"
)

// DefaultRetryInterval is the delay between readiness probes.
const DefaultRetryInterval = 5 * time.Second

// Prober reports whether the service can take traffic.
type Prober interface {
	Ready(ctx context.Context) bool
}

// WaitReady polls p until it reports ready, waiting interval between
// probes. There is no attempt limit; only ctx ends the wait. onNotReady,
// when set, is called for every negative probe. It returns how long the
// wait took.
func WaitReady(ctx context.Context, p Prober, interval time.Duration, log *logging.Logger, onNotReady func()) (time.Duration, error) {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	ctx, span := trace.Start(ctx, "intent.wait_ready")
	defer span.End()

	start := time.Now()
	err := retry.Until(ctx, interval, p.Ready, func(_ int, wait time.Duration) {
		if onNotReady != nil {
			onNotReady()
		}
		log.Info(ctx, "API is not ready, will retry in "+strconv.FormatFloat(wait.Seconds(), 'f', -1, 64)+" seconds...")
	})
	waited := time.Since(start)
	if err != nil {
		trace.Fail(span, err)
		return waited, errors.Wrap(errors.CodeCancelled, err, "readiness wait interrupted")
	}
	log.Debug(ctx, "API is ready", "waited", waited)
	return waited, nil
}
