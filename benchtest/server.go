package benchtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Version is reported by the stub's /info endpoint.
const Version = "benchtest"

// StubModel is one model listed by the stub service.
type StubModel struct {
	Name string
	Path string
}

// Service is an HTTP stub of the intent service. It mirrors the real
// service's routes, status codes and error bodies.
type Service struct {
	// Labels maps a query to the ranked labels returned for it.
	Labels map[string][]string
	// Default is returned for unknown queries.
	Default []string
	// Models are listed by /info. A single model is served in the
	// single-model form.
	Models []StubModel

	faults *faults
	ready  atomic.Bool

	mu         sync.Mutex
	requests   []ClassifyRequest
	readyCalls atomic.Int64
	early      atomic.Int64
}

// ClassifyRequest is a decoded POST /intent body.
type ClassifyRequest struct {
	Text  *string `json:"text"`
	Model string  `json:"model,omitempty"`
}

// NewService creates a stub that is ready immediately.
func NewService(labels map[string][]string, faults FaultConfig) *Service {
	s := &Service{
		Labels: labels,
		Models: []StubModel{{Name: "stub", Path: "/models/stub"}},
		faults: newFaults(faults),
	}
	s.ready.Store(true)
	return s
}

// SetReady toggles the /ready response.
func (s *Service) SetReady(ready bool) { s.ready.Store(ready) }

// Requests returns a copy of every classify request received.
func (s *Service) Requests() []ClassifyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClassifyRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// ReadyCalls returns how many /ready probes were received.
func (s *Service) ReadyCalls() int { return int(s.readyCalls.Load()) }

// ClassifiedBeforeReady counts /intent calls made while not ready.
func (s *Service) ClassifiedBeforeReady() int { return int(s.early.Load()) }

// Handler builds the gin router.
func (s *Service) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", s.handleReady)
	r.GET("/info", s.handleInfo)
	r.POST("/intent", s.handleIntent)
	return r
}

// Start serves the stub on a loopback port. The server is closed when
// the test ends.
func (s *Service) Start(t interface{ Cleanup(func()) }) *httptest.Server {
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func (s *Service) handleReady(c *gin.Context) {
	s.readyCalls.Add(1)
	if s.ready.Load() {
		c.String(http.StatusOK, "OK")
		return
	}
	c.String(http.StatusLocked, "Not ready")
}

func (s *Service) handleInfo(c *gin.Context) {
	if len(s.Models) == 1 {
		c.JSON(http.StatusOK, gin.H{
			"model":   gin.H{"name": s.Models[0].Name, "path": s.Models[0].Path},
			"ready":   s.ready.Load(),
			"version": Version,
		})
		return
	}
	models := make([]gin.H, len(s.Models))
	for i, m := range s.Models {
		models[i] = gin.H{"key": i, "name": m.Name, "path": m.Path}
	}
	c.JSON(http.StatusOK, gin.H{"models": models, "version": Version})
}

func (s *Service) handleIntent(c *gin.Context) {
	if !s.ready.Load() {
		s.early.Add(1)
	}

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"label":   "BODY_MISSING",
			"message": "Request doesn't have a body.",
		})
		return
	}
	if req.Text == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"label":   "TEXT_MISSING",
			"message": `"text" missing from request body.`,
		})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	s.faults.applyDelay(c.Request.Context())
	if s.faults.shouldFail(*req.Text) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"label":   "INTERNAL_ERROR",
			"message": "Something went wrong: injected fault",
		})
		return
	}

	labels, ok := s.Labels[*req.Text]
	if !ok {
		labels = s.Default
	}
	intents := make([]gin.H, len(labels))
	for i, l := range labels {
		intents[i] = gin.H{"label": l}
	}
	c.JSON(http.StatusOK, gin.H{"intents": intents})
}
