package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ms(vals ...int) []time.Duration {
	out := make([]time.Duration, len(vals))
	for i, v := range vals {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestSummarize(t *testing.T) {
	l := Summarize(ms(50, 10, 40, 20, 30))

	assert.Equal(t, 5, l.Count)
	assert.Equal(t, 10*time.Millisecond, l.Min)
	assert.Equal(t, 50*time.Millisecond, l.Max)
	assert.Equal(t, 30*time.Millisecond, l.Mean)
	assert.Equal(t, 30*time.Millisecond, l.Median)
	assert.Equal(t, 48*time.Millisecond, l.P95)
	// sqrt((400+100+0+100+400)/5) = sqrt(200) ms
	assert.InDelta(t, 14.142135, float64(l.StdDev)/float64(time.Millisecond), 1e-5)
}

func TestSummarizeOrderIndependent(t *testing.T) {
	assert.Equal(t, Summarize(ms(10, 20, 30, 40, 50)), Summarize(ms(30, 50, 10, 40, 20)))
}

func TestSummarizeEvenCount(t *testing.T) {
	l := Summarize(ms(10, 20, 30, 40))
	assert.Equal(t, 25*time.Millisecond, l.Median)
	// rank = 0.95*3 = 2.85 -> 30 + 0.85*10
	assert.Equal(t, 38500*time.Microsecond, l.P95)
}

func TestSummarizeSingle(t *testing.T) {
	l := Summarize(ms(7))
	assert.Equal(t, Latency{
		Count: 1, Min: 7 * time.Millisecond, Max: 7 * time.Millisecond,
		Mean: 7 * time.Millisecond, Median: 7 * time.Millisecond, P95: 7 * time.Millisecond,
	}, l)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Latency{}, Summarize(nil))
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	in := ms(3, 1, 2)
	Summarize(in)
	assert.Equal(t, ms(3, 1, 2), in)
}

func TestPercentile(t *testing.T) {
	s := []float64{10, 20, 30, 40, 50}
	cases := []struct {
		p, want float64
	}{
		{0, 10}, {25, 20}, {50, 30}, {95, 48}, {99, 49.6}, {100, 50},
		{-5, 10}, {150, 50},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, Percentile(s, tc.p), 1e-9, "p=%v", tc.p)
	}
	assert.Zero(t, Percentile(nil, 50))
}

func TestThroughput(t *testing.T) {
	assert.Equal(t, 50.0, Throughput(100, 2*time.Second))
	assert.Zero(t, Throughput(10, 0))
}
