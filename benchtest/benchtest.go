// Package benchtest provides test doubles for the intent service: an
// HTTP stub built on gin that speaks the real wire contract, and an
// in-memory Fake for harness tests that need no network at all.
package benchtest

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greynewell/intentbench/client"
)

// FaultConfig controls fault injection behavior.
type FaultConfig struct {
	// ErrorRate is the probability [0.0, 1.0] of failing a classify call.
	ErrorRate float64

	// FailQueries always fail, regardless of ErrorRate.
	FailQueries map[string]bool

	// Delay adds latency before each classify call.
	Delay time.Duration

	// DelayJitter adds random jitter up to this duration.
	DelayJitter time.Duration
}

type faults struct {
	cfg FaultConfig
	mu  sync.Mutex
	rng *rand.Rand
}

func newFaults(cfg FaultConfig) *faults {
	return &faults{cfg: cfg, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (f *faults) shouldFail(query string) bool {
	if f.cfg.FailQueries[query] {
		return true
	}
	if f.cfg.ErrorRate <= 0 {
		return false
	}
	f.mu.Lock()
	r := f.rng.Float64()
	f.mu.Unlock()
	return r < f.cfg.ErrorRate
}

func (f *faults) applyDelay(ctx context.Context) {
	d := f.cfg.Delay
	if f.cfg.DelayJitter > 0 {
		f.mu.Lock()
		d += time.Duration(f.rng.Int63n(int64(f.cfg.DelayJitter)))
		f.mu.Unlock()
	}
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
}

// ErrInjected is returned by Fake for injected faults.
var ErrInjected = fmt.Errorf("benchtest: fault injected")

// Fake is an in-memory intent service. Queries missing from Labels are
// answered with Default. It is safe for concurrent use.
type Fake struct {
	// Labels maps a query to the ranked labels returned for it.
	Labels map[string][]string
	// Default is returned for queries not in Labels.
	Default []string
	// Panics lists queries whose classification panics.
	Panics map[string]bool
	// NotReadyFor makes the first n Ready calls report false.
	NotReadyFor int
	// InfoBody is returned by Info; InfoErr, when set, is returned instead.
	InfoBody *client.Info
	InfoErr  error

	Faults FaultConfig

	once          sync.Once
	faults        *faults
	readyCalls    atomic.Int64
	ready         atomic.Bool
	classifyCalls atomic.Int64
	early         atomic.Int64
	inFlight      atomic.Int64
	maxInFlight   atomic.Int64
}

func (f *Fake) init() {
	f.once.Do(func() { f.faults = newFaults(f.Faults) })
}

// Ready reports false for the first NotReadyFor calls.
func (f *Fake) Ready(context.Context) bool {
	n := f.readyCalls.Add(1)
	if n > int64(f.NotReadyFor) {
		f.ready.Store(true)
		return true
	}
	return false
}

// Info returns InfoBody, or a single default model when unset.
func (f *Fake) Info(context.Context) (*client.Info, error) {
	if f.InfoErr != nil {
		return nil, f.InfoErr
	}
	if f.InfoBody != nil {
		return f.InfoBody, nil
	}
	return &client.Info{Models: []client.Model{{Key: "0", Name: "fake", Path: "memory"}}}, nil
}

// Classify answers from Labels, honoring fault injection.
func (f *Fake) Classify(ctx context.Context, text string) ([]string, error) {
	f.init()
	f.classifyCalls.Add(1)
	if !f.ready.Load() {
		f.early.Add(1)
	}

	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.maxInFlight.Load()
		if cur <= old || f.maxInFlight.CompareAndSwap(old, cur) {
			break
		}
	}

	f.faults.applyDelay(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Panics[text] {
		panic("benchtest: classifier exploded on " + text)
	}
	if f.faults.shouldFail(text) {
		return nil, ErrInjected
	}
	if labels, ok := f.Labels[text]; ok {
		return labels, nil
	}
	return f.Default, nil
}

// ReadyCalls returns how many readiness probes were made.
func (f *Fake) ReadyCalls() int { return int(f.readyCalls.Load()) }

// ClassifyCalls returns how many classify calls were made.
func (f *Fake) ClassifyCalls() int { return int(f.classifyCalls.Load()) }

// ClassifiedBeforeReady returns how many classify calls arrived before
// any readiness probe had succeeded.
func (f *Fake) ClassifiedBeforeReady() int { return int(f.early.Load()) }

// MaxInFlight returns the highest number of concurrent classify calls seen.
func (f *Fake) MaxInFlight() int { return int(f.maxInFlight.Load()) }
