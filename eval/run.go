package eval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/dataset"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/logging"
	"github.com/greynewell/intentbench/parallel"
	"github.com/greynewell/intentbench/trace"
)

// Service is the intent service as seen by the harness.
type Service interface {
	Prober
	Classifier
	Info(ctx context.Context) (*client.Info, error)
}

// Options configures a Run.
type Options struct {
	RunID         string // generated when empty
	URL           string // reported only
	Rows          []dataset.Row
	Service       Service
	Pool          *parallel.Pool
	RetryInterval time.Duration
	ModelIndex    int
	Logger        *logging.Logger
	Observers     []Observer

	// OnNotReady is called for each negative readiness probe.
	OnNotReady func()
	// OnStart is called after readiness and info, just before the clock
	// starts.
	OnStart func(ctx context.Context, info *client.Info)
}

// ErrEmptyDataset rejects a run with nothing to send.
var ErrEmptyDataset = errors.New(errors.CodeValidation, "dataset is empty")

// Run executes one benchmark: wait for readiness, fetch model info, then
// classify every row. The returned statistics are non-nil whenever
// dispatch started; an interrupted run returns them together with a
// CodeCancelled error.
func Run(ctx context.Context, opts Options) (*Statistics, error) {
	if len(opts.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	if opts.Pool == nil {
		opts.Pool = parallel.NewPool(4)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, runID)

	ctx, span := trace.Start(ctx, "intent.run",
		attribute.String("run_id", runID),
		attribute.Int("rows", len(opts.Rows)),
	)
	defer span.End()

	waited, err := WaitReady(ctx, opts.Service, opts.RetryInterval, log, opts.OnNotReady)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}

	info, err := opts.Service.Info(ctx)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	if opts.OnStart != nil {
		opts.OnStart(ctx, info)
	}

	agg := NewAggregator(len(opts.Rows), opts.Observers...)
	onFailure := func(f Failure) {
		log.Debug(ctx, "request failed", "query", f.Query, "error", f.Err)
		agg.OnFailure(f)
	}

	log.Info(ctx, "dispatch started", "rows", len(opts.Rows), "labels", len(dataset.Labels(opts.Rows)), "jobs", opts.Pool.Workers())
	start := time.Now()
	Classify(ctx, opts.Pool, opts.Rows, opts.Service, agg.OnSuccess, onFailure)
	elapsed := time.Since(start)

	st := Compute(agg.Snapshot(), elapsed)
	st.RunID = runID
	st.URL = opts.URL
	st.Jobs = opts.Pool.Workers()
	st.ReadyWait = waited
	if info != nil {
		st.Version = info.Version
		if m, ok := info.Model(opts.ModelIndex); ok {
			st.Model = &m
		}
	}

	log.Info(ctx, "dispatch finished",
		"total", st.Total, "failed", st.Failed, "elapsed", elapsed, "accuracy", st.Accuracy)

	if err := ctx.Err(); err != nil {
		st.Interrupted = true
		err = errors.Wrap(errors.CodeCancelled, err, "run interrupted")
		trace.Fail(span, err)
		return st, err
	}
	return st, nil
}
