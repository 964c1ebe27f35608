package eval

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greynewell/intentbench/benchtest"
	"github.com/greynewell/intentbench/dataset"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/parallel"
)

func rowsN(n int) []dataset.Row {
	rows := make([]dataset.Row, n)
	for i := range rows {
		rows[i] = dataset.Row{Query: fmt.Sprintf("q%d", i), Label: "a"}
	}
	return rows
}

func TestClassifyJoinBarrier(t *testing.T) {
	for _, jobs := range []int{1, 4, 50} {
		for _, n := range []int{1, 100} {
			t.Run(fmt.Sprintf("jobs=%d/rows=%d", jobs, n), func(t *testing.T) {
				rows := rowsN(n)
				fail := map[string]bool{}
				for i := 0; i < n; i += 3 {
					fail[rows[i].Query] = true
				}
				fake := &benchtest.Fake{
					Default: []string{"a"},
					Faults:  benchtest.FaultConfig{FailQueries: fail},
				}

				var mu sync.Mutex
				var successes, failures int
				Classify(context.Background(), parallel.NewPool(jobs), rows, fake,
					func(Result) { mu.Lock(); successes++; mu.Unlock() },
					func(Failure) { mu.Lock(); failures++; mu.Unlock() },
				)

				assert.Equal(t, n, successes+failures)
				assert.Equal(t, len(fail), failures)
				assert.Equal(t, n, fake.ClassifyCalls())
				assert.LessOrEqual(t, fake.MaxInFlight(), jobs)
			})
		}
	}
}

func TestClassifyFailureKinds(t *testing.T) {
	fake := &benchtest.Fake{
		Labels: map[string][]string{"empty": {}, "ok": {"x", "y"}},
		Panics: map[string]bool{"panic": true},
		Faults: benchtest.FaultConfig{FailQueries: map[string]bool{"err": true}},
	}
	rows := []dataset.Row{
		{Query: "empty", Label: "x"},
		{Query: "panic", Label: "x"},
		{Query: "err", Label: "x"},
		{Query: "ok", Label: "x"},
	}

	var mu sync.Mutex
	var results []Result
	failures := map[string]error{}
	Classify(context.Background(), parallel.NewPool(2), rows, fake,
		func(r Result) { mu.Lock(); results = append(results, r); mu.Unlock() },
		func(f Failure) { mu.Lock(); failures[f.Query] = f.Err; mu.Unlock() },
	)

	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].Predicted, "first label wins")
	assert.Equal(t, "ok", results[0].Query)

	require.Len(t, failures, 3)
	assert.ErrorIs(t, failures["empty"], ErrNoLabels)
	assert.Equal(t, errors.CodeInternal, errors.Code(failures["panic"]))
	assert.ErrorIs(t, failures["err"], benchtest.ErrInjected)
}

func TestClassifyCancelledAccountsEveryRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &benchtest.Fake{Default: []string{"a"}}
	var mu sync.Mutex
	var failures int
	Classify(ctx, parallel.NewPool(4), rowsN(20), fake,
		func(Result) { t.Error("no success expected after cancel") },
		func(f Failure) {
			mu.Lock()
			failures++
			mu.Unlock()
			assert.Equal(t, errors.CodeCancelled, errors.Code(f.Err))
		},
	)

	assert.Equal(t, 20, failures)
	assert.Zero(t, fake.ClassifyCalls())
}
