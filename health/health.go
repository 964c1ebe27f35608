// Package health exposes the state of a running benchmark over HTTP.
// Mount it next to /metrics so an operator or orchestrator can tell
// whether the run is still waiting on the service, dispatching, or done.
//
//	h := health.New("intentbench", version, rows)
//	srv.Handle("GET /healthz", h.Liveness())
//	srv.Handle("GET /status", h.Status())
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greynewell/intentbench/eval"
)

// Run phases.
const (
	PhaseWaiting     = "waiting"     // polling the service for readiness
	PhaseRunning     = "running"     // dispatching requests
	PhaseDone        = "done"        // all rows accounted for
	PhaseInterrupted = "interrupted" // cancelled before completion
)

// Tracker follows one benchmark run. It implements eval.Observer.
type Tracker struct {
	tool    string
	version string
	total   int
	started time.Time

	mu    sync.RWMutex
	phase string
	runID string

	done   atomic.Int64
	failed atomic.Int64
}

var _ eval.Observer = (*Tracker)(nil)

// Response is the JSON body returned by the endpoints.
type Response struct {
	Status    string `json:"status"`
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Phase     string `json:"phase,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Total     int    `json:"total,omitempty"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
}

// New creates a tracker for a run over total rows, starting in the
// waiting phase.
func New(tool, version string, total int) *Tracker {
	return &Tracker{
		tool:    tool,
		version: version,
		total:   total,
		started: time.Now(),
		phase:   PhaseWaiting,
	}
}

// SetPhase records the current phase.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}

// SetRunID records the run identifier once it is known.
func (t *Tracker) SetRunID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runID = id
}

// ObserveResult counts a completed row.
func (t *Tracker) ObserveResult(eval.Result) { t.done.Add(1) }

// ObserveFailure counts a failed row.
func (t *Tracker) ObserveFailure(eval.Failure) {
	t.done.Add(1)
	t.failed.Add(1)
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Response {
	t.mu.RLock()
	phase, runID := t.phase, t.runID
	t.mu.RUnlock()

	return Response{
		Status:    "ok",
		Tool:      t.tool,
		Version:   t.version,
		Uptime:    time.Since(t.started).Round(time.Second).String(),
		Phase:     phase,
		RunID:     runID,
		Total:     t.total,
		Completed: t.done.Load(),
		Failed:    t.failed.Load(),
	}
}

// Liveness returns an HTTP handler for /healthz. It always returns 200
// while the process is running.
func (t *Tracker) Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Response{
			Status:  "ok",
			Tool:    t.tool,
			Version: t.version,
			Uptime:  time.Since(t.started).Round(time.Second).String(),
		})
	}
}

// Status returns an HTTP handler reporting phase and progress. It answers
// 503 while the service under test is not ready yet.
func (t *Tracker) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := t.Snapshot()
		code := http.StatusOK
		if resp.Phase == PhaseWaiting {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
