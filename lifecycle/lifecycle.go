// Package lifecycle runs the benchmark under signal control. SIGINT or
// SIGTERM cancels the run context so in-flight requests fail fast and the
// partial report can still be written; shutdown hooks then run in reverse
// registration order (LIFO, like defer).
//
//	err := lifecycle.Run(ctx, func(ctx context.Context) error {
//	    lifecycle.OnShutdown(ctx, srv.Shutdown)
//	    return bench(ctx)
//	})
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/greynewell/intentbench/errors"
)

type contextKey struct{}

// abortDrain is how long an abandoned fn gets to return before shutdown
// hooks run anyway.
const abortDrain = time.Second

// Hook is a shutdown function. Its context carries the shutdown timeout.
type Hook func(ctx context.Context) error

type state struct {
	mu       sync.Mutex
	hooks    []Hook
	graceTTL time.Duration
	shutTTL  time.Duration
	signals  []os.Signal
	onSignal func(os.Signal)
}

// Option configures lifecycle behavior.
type Option func(*state)

// WithGracePeriod sets how long fn may keep running after a signal, for
// example to print a partial report. Default: 15 seconds.
func WithGracePeriod(d time.Duration) Option {
	return func(s *state) { s.graceTTL = d }
}

// WithShutdownTimeout sets the maximum time for shutdown hooks to complete.
// Default: 10 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *state) { s.shutTTL = d }
}

// WithSignalHandler is called when a signal arrives, before the context
// is cancelled.
func WithSignalHandler(fn func(os.Signal)) Option {
	return func(s *state) { s.onSignal = fn }
}

// Run executes fn with a context derived from parent that is cancelled on
// SIGINT or SIGTERM. After fn returns, or the grace period after a signal
// expires, shutdown hooks run in reverse order. An fn that outlives the
// grace period or a second signal gets up to one more second to return
// before the hooks run; after that they run concurrently with it. Run returns fn's error,
// else the first hook error. Panics in fn are recovered and returned as
// CodeInternal errors.
func Run(parent context.Context, fn func(ctx context.Context) error, opts ...Option) (retErr error) {
	st := &state{
		graceTTL: 15 * time.Second,
		shutTTL:  10 * time.Second,
		signals:  []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, o := range opts {
		o(st)
	}

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, st.signals...)
	defer signal.Stop(sigCh)

	ctx = context.WithValue(ctx, contextKey{}, st)

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Newf(errors.CodeInternal, "panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case retErr = <-done:
	case sig := <-sigCh:
		if st.onSignal != nil {
			st.onSignal(sig)
		}
		cancel(errors.Newf(errors.CodeCancelled, "received %s", sig))
		abandoned := true
		select {
		case retErr = <-done:
			abandoned = false
		case <-sigCh:
			retErr = errors.Newf(errors.CodeCancelled, "received second signal, aborting")
		case <-time.After(st.graceTTL):
			retErr = errors.Newf(errors.CodeCancelled, "run did not stop within %v of %s", st.graceTTL, sig)
		}
		if abandoned {
			// fn may still be writing; hooks close what it writes to.
			select {
			case <-done:
			case <-time.After(abortDrain):
			}
		}
	}
	cancel(nil)

	if err := st.shutdown(); err != nil && retErr == nil {
		retErr = err
	}
	return retErr
}

// OnShutdown registers a hook to run during shutdown. Hooks run in
// reverse registration order. The context must come from Run; otherwise
// the hook is ignored.
func OnShutdown(ctx context.Context, fn Hook) {
	st := stateFromContext(ctx)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.hooks = append(st.hooks, fn)
}

// shutdown runs hooks in reverse order with timeout.
func (s *state) shutdown() error {
	s.mu.Lock()
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutTTL)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var firstErr error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		done <- firstErr
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Newf(errors.CodeInternal, "lifecycle: shutdown timeout after %v", s.shutTTL)
	}
}

func stateFromContext(ctx context.Context) *state {
	st, _ := ctx.Value(contextKey{}).(*state)
	return st
}
