package report

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greynewell/intentbench/client"
	"github.com/greynewell/intentbench/eval"
	"github.com/greynewell/intentbench/stats"
)

// latencyMS is stats.Latency in fractional milliseconds.
type latencyMS struct {
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min_ms" yaml:"min_ms"`
	Max    float64 `json:"max_ms" yaml:"max_ms"`
	Mean   float64 `json:"mean_ms" yaml:"mean_ms"`
	Median float64 `json:"median_ms" yaml:"median_ms"`
	P95    float64 `json:"p95_ms" yaml:"p95_ms"`
	StdDev float64 `json:"stddev_ms" yaml:"stddev_ms"`
}

// Document is the machine-readable report.
type Document struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	URL     string        `json:"url,omitempty" yaml:"url,omitempty"`
	Model   *client.Model `json:"model,omitempty" yaml:"model,omitempty"`
	Version string        `json:"version,omitempty" yaml:"version,omitempty"`
	Jobs    int           `json:"jobs" yaml:"jobs"`

	Total     int     `json:"total" yaml:"total"`
	Correct   int     `json:"correct" yaml:"correct"`
	Incorrect int     `json:"incorrect" yaml:"incorrect"`
	Failed    int     `json:"failed" yaml:"failed"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`

	Scores          []stats.ClassScore    `json:"scores" yaml:"scores"`
	Average         stats.MacroAverage    `json:"average" yaml:"average"`
	ConfusionMatrix stats.ConfusionMatrix `json:"confusion_matrix" yaml:"confusion_matrix"`

	Latency          latencyMS `json:"latency" yaml:"latency"`
	ElapsedSeconds   float64   `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Throughput       float64   `json:"requests_per_second" yaml:"requests_per_second"`
	ReadyWaitSeconds float64   `json:"ready_wait_seconds" yaml:"ready_wait_seconds"`

	Interrupted   bool                 `json:"interrupted" yaml:"interrupted"`
	Misclassified []eval.Misclassified `json:"misclassified" yaml:"misclassified"`
}

func msf(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// NewDocument converts statistics into the report document.
func NewDocument(st *eval.Statistics) Document {
	mis := st.Misclassified
	if mis == nil {
		mis = []eval.Misclassified{}
	}
	scores := st.Scores
	if scores == nil {
		scores = []stats.ClassScore{}
	}
	return Document{
		RunID:           st.RunID,
		URL:             st.URL,
		Model:           st.Model,
		Version:         st.Version,
		Jobs:            st.Jobs,
		Total:           st.Total,
		Correct:         st.Correct,
		Incorrect:       st.Incorrect,
		Failed:          st.Failed,
		Accuracy:        st.Accuracy,
		Scores:          scores,
		Average:         st.Average,
		ConfusionMatrix: st.Matrix,
		Latency: latencyMS{
			Count:  st.Latency.Count,
			Min:    msf(st.Latency.Min),
			Max:    msf(st.Latency.Max),
			Mean:   msf(st.Latency.Mean),
			Median: msf(st.Latency.Median),
			P95:    msf(st.Latency.P95),
			StdDev: msf(st.Latency.StdDev),
		},
		ElapsedSeconds:   st.Elapsed.Seconds(),
		Throughput:       st.Throughput,
		ReadyWaitSeconds: st.ReadyWait.Seconds(),
		Interrupted:      st.Interrupted,
		Misclassified:    mis,
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, st *eval.Statistics) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(st))
}

// YAML writes the report as YAML.
func YAML(w io.Writer, st *eval.Statistics) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(st)); err != nil {
		return err
	}
	return enc.Close()
}
