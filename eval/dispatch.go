package eval

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/greynewell/intentbench/dataset"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/parallel"
	"github.com/greynewell/intentbench/trace"
)

// Classifier is the part of the service client the dispatcher needs.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]string, error)
}

// ErrNoLabels is the failure recorded when the service answers with an
// empty label list.
var ErrNoLabels = errors.New(errors.CodeProtocol, "service returned no labels")

// Classify sends one request per row through pool and reports each row
// exactly once, to onSuccess or onFailure. It returns after every row has
// been reported. Callbacks run concurrently and must synchronize shared
// state themselves.
func Classify(ctx context.Context, pool *parallel.Pool, rows []dataset.Row, c Classifier,
	onSuccess func(Result), onFailure func(Failure)) {
	ctx, span := trace.Start(ctx, "intent.dispatch",
		attribute.Int("rows", len(rows)),
		attribute.Int("jobs", pool.Workers()),
	)
	defer span.End()

	parallel.Do(ctx, pool, rows, func(ctx context.Context, row dataset.Row) {
		res, err := classifyRow(ctx, c, row)
		if err != nil {
			onFailure(Failure{Query: row.Query, Err: err})
			return
		}
		onSuccess(res)
	})
}

func classifyRow(ctx context.Context, c Classifier, row dataset.Row) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf(errors.CodeInternal, "classifier panicked: %v", p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(errors.CodeCancelled, context.Cause(ctx), "request not sent")
	}

	start := time.Now()
	labels, err := c.Classify(ctx, row.Query)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	if len(labels) == 0 {
		return Result{}, ErrNoLabels
	}
	return Result{
		Predicted: labels[0],
		Correct:   row.Label,
		Query:     row.Query,
		Duration:  elapsed,
	}, nil
}

// String renders a failure for debug logs.
func (f Failure) String() string {
	return fmt.Sprintf("%q: %v", f.Query, f.Err)
}
