// Package server exposes the dashboard state over HTTP: a JSON snapshot, the
// chart page, the event journal, Prometheus metrics and a health check.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/kmrl-dash/core/dashboard"
	"github.com/kilianp07/kmrl-dash/core/journal"
	"github.com/kilianp07/kmrl-dash/core/logger"
)

// StateSource provides dashboard snapshots.
type StateSource interface {
	Snapshot() dashboard.State
}

// ChartPage renders the chart page.
type ChartPage interface {
	Render(w io.Writer) error
}

// Options lists the server's collaborators. Only State is required.
type Options struct {
	State   StateSource
	Charts  ChartPage
	Journal journal.Store
	// Token guards /api/journal with a bearer token when set.
	Token string
	// Metrics defaults to the Prometheus default gatherer.
	Metrics http.Handler
	Log     logger.Logger
}

// Server routes the view endpoints.
type Server struct {
	router *chi.Mux
	opts   Options
	log    logger.Logger
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	s := &Server{router: chi.NewRouter(), opts: opts, log: logger.OrNop(opts.Log)}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	r.Get("/charts", s.chartPage)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/schedule/{trainID}", s.getTrain)
		r.Get("/journal", s.listJournal)
	})
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("view server shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("view server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
