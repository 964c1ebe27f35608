package eval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greynewell/intentbench/benchtest"
	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/dataset"
	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/parallel"
	"github.com/greynewell/intentbench/stats"
)

var flightWeather = []dataset.Row{
	{Query: "book a flight", Label: "flight"},
	{Query: "what's the weather", Label: "weather"},
}

var flightWeatherLabels = map[string][]string{
	"book a flight":      {"flight"},
	"what's the weather": {"food"},
}

func checkFlightWeather(t *testing.T, st *Statistics) {
	t.Helper()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Correct)
	assert.Equal(t, 1, st.Incorrect)
	assert.Zero(t, st.Failed)
	assert.InDelta(t, 0.5, st.Accuracy, 1e-12)
	assert.Equal(t, stats.ConfusionMatrix{
		"flight":  {"flight": 1},
		"weather": {"food": 1},
	}, st.Matrix)
	assert.Equal(t, []Misclassified{{Predicted: "food", Correct: "weather", Query: "what's the weather"}}, st.Misclassified)

	// flight: tp=1 -> 1.0; food: fp=1 -> 0; weather: fn=1 -> 0.
	require.Len(t, st.Scores, 3)
	assert.Equal(t, "flight", st.Scores[0].Label)
	assert.Equal(t, "food", st.Scores[1].Label)
	assert.Equal(t, "weather", st.Scores[2].Label)
	assert.Equal(t, 3, st.Average.Labels)
	assert.InDelta(t, 1.0/3, st.Average.F1, 1e-12)
	assert.Equal(t, 2, st.Latency.Count)
}

func TestRunEndToEndFake(t *testing.T) {
	fake := &benchtest.Fake{Labels: flightWeatherLabels}
	st, err := Run(context.Background(), Options{
		Rows:          flightWeather,
		Service:       fake,
		Pool:          parallel.NewPool(2),
		RetryInterval: time.Millisecond,
	})
	require.NoError(t, err)
	checkFlightWeather(t, st)
	assert.NotEmpty(t, st.RunID)
	require.NotNil(t, st.Model)
	assert.Equal(t, "fake", st.Model.Name)
	assert.False(t, st.Interrupted)
}

func TestRunModelIndexOutOfRange(t *testing.T) {
	st, err := Run(context.Background(), Options{
		Rows:          flightWeather,
		Service:       &benchtest.Fake{Labels: flightWeatherLabels},
		ModelIndex:    1,
		RetryInterval: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Nil(t, st.Model)
	assert.Equal(t, 2, st.Total)
}

func TestRunEndToEndHTTP(t *testing.T) {
	svc := benchtest.NewService(flightWeatherLabels, benchtest.FaultConfig{})
	srv := svc.Start(t)

	var started bool
	st, err := Run(context.Background(), Options{
		RunID:         "run-1",
		URL:           srv.URL,
		Rows:          flightWeather,
		Service:       client.New(srv.URL),
		Pool:          parallel.NewPool(4),
		RetryInterval: time.Millisecond,
		OnStart:       func(context.Context, *client.Info) { started = true },
	})
	require.NoError(t, err)
	checkFlightWeather(t, st)
	assert.True(t, started)
	assert.Equal(t, "run-1", st.RunID)
	assert.Equal(t, benchtest.Version, st.Version)
	assert.Equal(t, 4, st.Jobs)
}

func TestRunRejectsEmptyDataset(t *testing.T) {
	fake := &benchtest.Fake{}
	st, err := Run(context.Background(), Options{Service: fake})
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Equal(t, errors.CodeValidation, errors.Code(err))
	assert.Zero(t, fake.ReadyCalls(), "no request before the dataset check")
	assert.Zero(t, fake.ClassifyCalls())
}

func TestRunNoClassifyBeforeReady(t *testing.T) {
	fake := &benchtest.Fake{NotReadyFor: 3, Default: []string{"a"}}
	notReady := 0
	st, err := Run(context.Background(), Options{
		Rows:          rowsN(25),
		Service:       fake,
		Pool:          parallel.NewPool(8),
		RetryInterval: time.Millisecond,
		OnNotReady:    func() { notReady++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, notReady)
	assert.Zero(t, fake.ClassifiedBeforeReady())
	assert.Equal(t, 25, st.Total)
	assert.Positive(t, st.ReadyWait)
}

func TestRunNoClassifyBeforeReadyHTTP(t *testing.T) {
	svc := benchtest.NewService(nil, benchtest.FaultConfig{})
	svc.Default = []string{"a"}
	svc.SetReady(false)
	srv := svc.Start(t)

	go func() {
		for svc.ReadyCalls() < 3 {
			time.Sleep(time.Millisecond)
		}
		svc.SetReady(true)
	}()

	st, err := Run(context.Background(), Options{
		Rows:          rowsN(10),
		Service:       client.New(srv.URL),
		RetryInterval: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, st.Correct)
	assert.Zero(t, svc.ClassifiedBeforeReady())
	assert.GreaterOrEqual(t, svc.ReadyCalls(), 3)
}

func TestRunInfoFailureIsFatal(t *testing.T) {
	fake := &benchtest.Fake{InfoErr: errors.New(errors.CodeProtocol, "bad info")}
	st, err := Run(context.Background(), Options{
		Rows:    flightWeather,
		Service: fake,
	})
	assert.Nil(t, st)
	assert.Equal(t, errors.CodeProtocol, errors.Code(err))
	assert.Zero(t, fake.ClassifyCalls())
}

func TestRunMixedFailuresKeepTotals(t *testing.T) {
	rows := rowsN(60)
	fail := map[string]bool{}
	for i := 0; i < len(rows); i += 4 {
		fail[rows[i].Query] = true
	}
	fake := &benchtest.Fake{
		Labels:  map[string][]string{"q1": {"b"}, "q2": {}},
		Default: []string{"a"},
		Faults:  benchtest.FaultConfig{FailQueries: fail},
	}

	st, err := Run(context.Background(), Options{Rows: rows, Service: fake, Pool: parallel.NewPool(5)})
	require.NoError(t, err)

	assert.Equal(t, 60, st.Total)
	assert.Equal(t, st.Total, st.Correct+st.Incorrect+st.Failed)
	assert.Equal(t, st.Correct+st.Incorrect, st.Latency.Count)
	assert.Equal(t, 16, st.Failed, "15 injected plus one empty label list")
	assert.Equal(t, 1, st.Incorrect)
}

func TestRunInterrupted(t *testing.T) {
	fake := &benchtest.Fake{Default: []string{"a"}, Faults: benchtest.FaultConfig{Delay: time.Minute}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	st, err := Run(ctx, Options{Rows: rowsN(10), Service: fake, Pool: parallel.NewPool(2)})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.Code(err))
	require.NotNil(t, st)
	assert.True(t, st.Interrupted)
	assert.Equal(t, 10, st.Failed)
	assert.Equal(t, 10, st.Total)
}

func TestCompute(t *testing.T) {
	s := Snapshot{
		Correct:   3,
		Incorrect: 1,
		Failed:    1,
		Matrix:    stats.ConfusionMatrix{"a": {"a": 3, "b": 1}},
		Durations: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 40 * time.Millisecond},
	}
	st := Compute(s, 2*time.Second)

	assert.Equal(t, 5, st.Total)
	assert.InDelta(t, 0.6, st.Accuracy, 1e-12)
	assert.InDelta(t, 2.5, st.Throughput, 1e-12)
	assert.Equal(t, 25*time.Millisecond, st.Latency.Mean)
	require.Len(t, st.Scores, 2)
	assert.InDelta(t, 6.0/7, st.Scores[0].F1, 1e-12)
	assert.Zero(t, st.Scores[1].F1)
}
