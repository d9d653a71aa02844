// Package api provides the HTTP surface of the bridge.
//
// Endpoints:
//
//	POST /api/conversation/process  →  process one user utterance
//	GET  /health                    →  liveness probe + attribution
//	GET  /ready                     →  readiness probe
//	GET  /metrics                   →  Prometheus metrics
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: request id, logging, recovery
//   - converse.go: conversation endpoint
//   - health.go: health check endpoints
//   - response.go: envelope types and JSON helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phoenixr49/hugbridge/internal/log"
	"github.com/phoenixr49/hugbridge/internal/metrics"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3412"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout prevents Slowloris-style header trickling.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because a turn blocks on the remote
	// model's generation.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout for keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the bridge API.
type Server struct {
	mux *http.ServeMux

	health   *HealthHandler
	converse *ConverseHandler
}

// NewServer creates a server with all routes registered. m may be nil
// to disable the metrics endpoint.
func NewServer(processor TurnProcessor, m *metrics.Metrics, version string, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		health:   NewHealthHandler(version, logger),
		converse: NewConverseHandler(processor, logger),
	}

	s.health.RegisterRoutes(mux)
	s.converse.RegisterRoutes(mux)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request id → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, requestIDMiddleware, loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
