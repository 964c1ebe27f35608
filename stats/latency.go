package stats

import (
	"math"
	"sort"
	"time"
)

// Latency summarizes a set of request durations.
type Latency struct {
	Count  int           `json:"count" yaml:"count"`
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	Median time.Duration `json:"median" yaml:"median"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	StdDev time.Duration `json:"stddev" yaml:"stddev"`
}

// Summarize computes min, max, mean, median, p95 and population standard
// deviation. Sample order does not matter. An empty input yields a zero
// Latency with Count 0.
func Summarize(samples []time.Duration) Latency {
	n := len(samples)
	if n == 0 {
		return Latency{}
	}

	sorted := make([]float64, n)
	var sum float64
	for i, d := range samples {
		sorted[i] = float64(d)
		sum += float64(d)
	}
	sort.Float64s(sorted)
	mean := sum / float64(n)

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}

	return Latency{
		Count:  n,
		Min:    time.Duration(sorted[0]),
		Max:    time.Duration(sorted[n-1]),
		Mean:   round(mean),
		Median: round(Percentile(sorted, 50)),
		P95:    round(Percentile(sorted, 95)),
		StdDev: round(math.Sqrt(sq / float64(n))),
	}
}

// Percentile returns the p-th percentile (0-100) of an ascending slice
// using linear interpolation between the two closest ranks:
//
//	rank = p/100 * (n-1)
//	v    = s[floor(rank)] + frac(rank) * (s[ceil(rank)] - s[floor(rank)])
//
// This is the NumPy default ("linear", Hyndman-Fan type 7). It returns 0
// for an empty slice and clamps p to [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = math.Max(0, math.Min(100, p))

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func round(ns float64) time.Duration {
	return time.Duration(math.Round(ns))
}

// Throughput returns requests per second over elapsed, or 0 when elapsed
// is not positive.
func Throughput(requests int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(requests) / elapsed.Seconds()
}
