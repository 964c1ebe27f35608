// Package stats computes evaluation statistics from accumulated results:
// per-class F1 scores, their macro average, and latency summaries. All
// functions are pure; callers own the inputs and receive fresh outputs.
package stats

import (
	"sort"
)

// AverageLabel names the synthetic row that carries the macro-averaged F1.
const AverageLabel = "AVERAGE"

// ConfusionMatrix counts (true label, predicted label) pairs. Lookups on
// missing keys yield zero.
type ConfusionMatrix map[string]map[string]int

// Add increments the count for the (actual, predicted) pair.
func (m ConfusionMatrix) Add(actual, predicted string) {
	row, ok := m[actual]
	if !ok {
		row = make(map[string]int)
		m[actual] = row
	}
	row[predicted]++
}

// Count returns the count for the (actual, predicted) pair, or 0.
func (m ConfusionMatrix) Count(actual, predicted string) int {
	return m[actual][predicted]
}

// Total returns the sum of all counts.
func (m ConfusionMatrix) Total() int {
	var n int
	for _, row := range m {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Labels returns every label that appears as a row or column key, sorted.
func (m ConfusionMatrix) Labels() []string {
	seen := make(map[string]struct{})
	for actual, row := range m {
		seen[actual] = struct{}{}
		for predicted := range row {
			seen[predicted] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Clone returns a deep copy.
func (m ConfusionMatrix) Clone() ConfusionMatrix {
	cp := make(ConfusionMatrix, len(m))
	for actual, row := range m {
		r := make(map[string]int, len(row))
		for predicted, c := range row {
			r[predicted] = c
		}
		cp[actual] = r
	}
	return cp
}

// ClassScore is the F1 breakdown for one label.
type ClassScore struct {
	Label         string  `json:"label" yaml:"label"`
	TruePositive  int     `json:"true_positive" yaml:"true_positive"`
	FalseNegative int     `json:"false_negative" yaml:"false_negative"`
	FalsePositive int     `json:"false_positive" yaml:"false_positive"`
	F1            float64 `json:"f1" yaml:"f1"`
}

// MacroAverage is the synthetic AVERAGE row: the number of labels and the
// unweighted mean of their F1 scores.
type MacroAverage struct {
	Label  string  `json:"label" yaml:"label"`
	Labels int     `json:"labels" yaml:"labels"`
	F1     float64 `json:"f1" yaml:"f1"`
}

// F1 computes 2tp / (2tp + fn + fp). ok is false when all counts are
// zero, in which case the score is undefined.
func F1(tp, fn, fp int) (score float64, ok bool) {
	if tp == 0 && fn == 0 && fp == 0 {
		return 0, false
	}
	return 2 * float64(tp) / float64(2*tp+fn+fp), true
}

// F1Scores returns one ClassScore per label appearing anywhere in m, in
// lexicographic label order.
func F1Scores(m ConfusionMatrix) []ClassScore {
	tp := make(map[string]int)
	fn := make(map[string]int)
	fp := make(map[string]int)

	for actual, row := range m {
		for predicted, c := range row {
			if predicted == actual {
				tp[actual] += c
				continue
			}
			fn[actual] += c
			fp[predicted] += c
		}
	}

	labels := m.Labels()
	scores := make([]ClassScore, 0, len(labels))
	for _, l := range labels {
		f1, ok := F1(tp[l], fn[l], fp[l])
		if !ok {
			// Only a label whose every cell is zero lands here.
			continue
		}
		scores = append(scores, ClassScore{
			Label:         l,
			TruePositive:  tp[l],
			FalseNegative: fn[l],
			FalsePositive: fp[l],
			F1:            f1,
		})
	}
	return scores
}

// MacroF1 returns the AVERAGE row for scores.
func MacroF1(scores []ClassScore) MacroAverage {
	avg := MacroAverage{Label: AverageLabel, Labels: len(scores)}
	if len(scores) == 0 {
		return avg
	}
	var sum float64
	for _, s := range scores {
		sum += s.F1
	}
	avg.F1 = sum / float64(len(scores))
	return avg
}
