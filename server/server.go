// Package server runs the side HTTP listener that exposes run metrics
// while a benchmark is in progress.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/greynewell/intentbench/errors"
)

// Server is a minimal HTTP server that runs in the background for the
// duration of a benchmark.
type Server struct {
	Addr string
	mux  *http.ServeMux
	srv  *http.Server
	ln   net.Listener
	done chan error
}

// New creates a server bound to the given address.
func New(addr string) *Server {
	mux := http.NewServeMux()
	return &Server{
		Addr: addr,
		mux:  mux,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Handle registers a handler for the given pattern.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start binds the listener and serves in a background goroutine. It
// returns once the address is bound, so a port-0 address can be read back
// with ListenAddr.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrapf(errors.CodeTransport, err, "listen on %s", s.Addr)
	}
	s.ln = ln
	s.done = make(chan error, 1)

	go func() {
		err := s.srv.Serve(ln)
		if err == http.ErrServerClosed {
			err = nil
		}
		s.done <- err
	}()
	return nil
}

// ListenAddr returns the bound address, or "" before Start.
func (s *Server) ListenAddr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight scrapes
// to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
