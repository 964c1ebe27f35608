package eval

import (
	"time"

	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/stats"
)

// Statistics is the frozen result of a run.
type Statistics struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	URL     string        `json:"url" yaml:"url"`
	Model   *client.Model `json:"model,omitempty" yaml:"model,omitempty"`
	Version string        `json:"version,omitempty" yaml:"version,omitempty"`
	Jobs    int           `json:"jobs" yaml:"jobs"`

	Total     int     `json:"total" yaml:"total"`
	Correct   int     `json:"correct" yaml:"correct"`
	Incorrect int     `json:"incorrect" yaml:"incorrect"`
	Failed    int     `json:"failed" yaml:"failed"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`

	Scores  []stats.ClassScore    `json:"scores" yaml:"scores"`
	Average stats.MacroAverage    `json:"average" yaml:"average"`
	Matrix  stats.ConfusionMatrix `json:"confusion_matrix" yaml:"confusion_matrix"`

	Latency    stats.Latency `json:"latency" yaml:"latency"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Throughput float64       `json:"throughput" yaml:"throughput"`
	ReadyWait  time.Duration `json:"ready_wait" yaml:"ready_wait"`

	Interrupted   bool            `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
	Misclassified []Misclassified `json:"misclassified" yaml:"misclassified"`
}

// Compute derives statistics from a snapshot. elapsed is the wall clock
// of the dispatch phase. Accuracy and throughput are computed over every
// accounted row, failures included; an empty snapshot yields zeros.
func Compute(s Snapshot, elapsed time.Duration) *Statistics {
	scores := stats.F1Scores(s.Matrix)
	total := s.Total()

	st := &Statistics{
		Total:         total,
		Correct:       s.Correct,
		Incorrect:     s.Incorrect,
		Failed:        s.Failed,
		Scores:        scores,
		Average:       stats.MacroF1(scores),
		Matrix:        s.Matrix,
		Latency:       stats.Summarize(s.Durations),
		Elapsed:       elapsed,
		Throughput:    stats.Throughput(total, elapsed),
		Misclassified: s.Misclassified,
	}
	if total > 0 {
		st.Accuracy = float64(s.Correct) / float64(total)
	}
	return st
}
