// Package server provides the HTTP and websocket server for physiotrack.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/physiotrack/internal/engine"
	"github.com/ayusman/physiotrack/internal/metrics"
	"github.com/ayusman/physiotrack/internal/server/api"
	"github.com/ayusman/physiotrack/internal/server/middleware"
	"github.com/ayusman/physiotrack/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    *engine.Engine
	// Notifier announces catalog edits to other instances; optional.
	Notifier api.Notifier
	// Metrics and Gatherer enable instrumentation and the /metrics endpoint.
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server for the physiotrack service.
type Server struct {
	config   Config
	router   *mux.Router
	pose     *PoseHandler
	reloader *instrumentedReloader
	start    time.Time

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	if config.Engine != nil {
		s.reloader = &instrumentedReloader{engine: config.Engine, metrics: config.Metrics}
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	if s.config.Store != nil {
		var reloader api.Reloader
		if s.reloader != nil {
			reloader = s.reloader
		}
		api.NewExerciseHandler(s.config.Store, reloader, s.config.Notifier).SetupRoutes(r)
	}

	if s.config.Engine != nil {
		r.Handle("/api/pose/state", api.NewStateHandler(s.config.Engine)).Methods("GET")

		s.pose = NewPoseHandler(s.config.Engine, s.config.Metrics)
		r.Handle("/pose", s.pose)
	}

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}

	r.Use(middleware.PanicRecovery(s.config.Metrics))
	r.Use(middleware.LogRequest())
	if s.config.Metrics != nil {
		r.Use(middleware.RequestMetrics(s.config.Metrics))
	}
	r.Use(middleware.DrainAndCloseRequest())
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Reloader returns the instrumented engine reloader, nil without an engine.
func (s *Server) Reloader() api.Reloader {
	if s.reloader == nil {
		return nil
	}
	return s.reloader
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// ListenAndServe starts the HTTP server on the given address and blocks until
// it stops. It returns nil after a graceful Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	log.Infof(" > server listening on: [%s]", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes open pose sessions and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.pose != nil {
		s.pose.CloseAll()
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// instrumentedReloader counts engine reloads by result.
type instrumentedReloader struct {
	engine  *engine.Engine
	metrics *metrics.Manager
}

func (r *instrumentedReloader) Reload(ctx context.Context) error {
	err := r.engine.Reload(ctx)
	if r.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.metrics.CounterCatalogReloads.WithLabelValues(result).Inc()
	}
	return err
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("server: encode response: %s", err)
	}
}
