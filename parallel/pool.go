// Package parallel provides the bounded worker pool used to fan requests
// out against the service under test.
package parallel

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pool executes work with a bounded number of goroutines and an optional
// request rate limit.
type Pool struct {
	workers int
	limiter *rate.Limiter
}

// Option configures a Pool.
type Option func(*Pool)

// WithRate caps how many calls start per second across all workers.
// Zero or a negative rate leaves the pool unlimited.
func WithRate(perSecond float64) Option {
	return func(p *Pool) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewPool creates a pool with the given concurrency limit.
func NewPool(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{workers: workers}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Limited reports whether the pool enforces a request rate.
func (p *Pool) Limited() bool { return p.limiter != nil }

// ErrThrottled is the cancellation cause seen by work that could not get
// a rate-limit token before its context ended.
var ErrThrottled = errors.New("parallel: rate limit wait aborted")

// Do calls fn exactly once for every item, with at most Workers calls in
// flight, and returns only after every call has returned. Items are
// started in order but may finish in any order.
//
// When the pool is rate limited each call first waits for a token. If
// that wait fails, fn still runs, with a context already cancelled with
// ErrThrottled as its cause, so every item is accounted for.
func Do[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T)) {
	var g errgroup.Group
	g.SetLimit(p.workers)

	for _, item := range items {
		g.Go(func() error {
			wctx := ctx
			if p.limiter != nil {
				if err := p.limiter.Wait(ctx); err != nil {
					cctx, cancel := context.WithCancelCause(ctx)
					cancel(errors.Join(ErrThrottled, err))
					wctx = cctx
				}
			}
			fn(wctx, item)
			return nil
		})
	}

	_ = g.Wait()
}
