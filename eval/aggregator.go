// Package eval is the benchmark harness: it gates on service readiness,
// fans classification requests out over a bounded pool, and folds every
// outcome into an Aggregator whose snapshot becomes the run Statistics.
package eval

import (
	"slices"
	"sync"
	"time"

	"github.com/greynewell/intentbench/stats"
)

// Result is one successful classification.
type Result struct {
	Predicted string
	Correct   string
	Query     string
	Duration  time.Duration
}

// Hit reports whether the prediction matched the expected label.
func (r Result) Hit() bool { return r.Predicted == r.Correct }

// Failure marks a row that produced no usable prediction. Err is kept for
// logging only.
type Failure struct {
	Query string
	Err   error
}

// Misclassified is a wrong prediction kept for the report side channel.
type Misclassified struct {
	Predicted string `json:"predicted" yaml:"predicted"`
	Correct   string `json:"correct" yaml:"correct"`
	Query     string `json:"query" yaml:"query"`
}

// Observer is notified after each outcome has been folded in. Observers
// run under the aggregator lock and must not call back into it.
type Observer interface {
	ObserveResult(Result)
	ObserveFailure(Failure)
}

// Snapshot is a deep copy of the aggregator state at one point in time.
type Snapshot struct {
	Correct       int
	Incorrect     int
	Failed        int
	Matrix        stats.ConfusionMatrix
	Durations     []time.Duration
	Misclassified []Misclassified
}

// Total returns the number of rows accounted for.
func (s Snapshot) Total() int { return s.Correct + s.Incorrect + s.Failed }

// Aggregator accumulates dispatcher callbacks. All methods are safe for
// concurrent use; every mutation happens under one mutex.
type Aggregator struct {
	mu            sync.Mutex
	correct       int
	incorrect     int
	failed        int
	matrix        stats.ConfusionMatrix
	durations     []time.Duration
	misclassified []Misclassified
	observers     []Observer
}

// NewAggregator creates an empty aggregator. sizeHint preallocates the
// latency sample buffer.
func NewAggregator(sizeHint int, observers ...Observer) *Aggregator {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Aggregator{
		matrix:    make(stats.ConfusionMatrix),
		durations: make([]time.Duration, 0, sizeHint),
		observers: observers,
	}
}

// OnSuccess folds in a successful classification.
func (a *Aggregator) OnSuccess(r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Hit() {
		a.correct++
	} else {
		a.incorrect++
		a.misclassified = append(a.misclassified, Misclassified{
			Predicted: r.Predicted,
			Correct:   r.Correct,
			Query:     r.Query,
		})
	}
	a.matrix.Add(r.Correct, r.Predicted)
	a.durations = append(a.durations, r.Duration)

	for _, o := range a.observers {
		o.ObserveResult(r)
	}
}

// OnFailure counts a row that produced no usable result.
func (a *Aggregator) OnFailure(f Failure) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failed++
	for _, o := range a.observers {
		o.ObserveFailure(f)
	}
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		Correct:       a.correct,
		Incorrect:     a.incorrect,
		Failed:        a.failed,
		Matrix:        a.matrix.Clone(),
		Durations:     slices.Clone(a.durations),
		Misclassified: slices.Clone(a.misclassified),
	}
}
