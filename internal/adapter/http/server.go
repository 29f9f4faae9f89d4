// Package http exposes the map UI's API: filtered observations, species
// listings, geocoding search, and the operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/pipeline"
)

// Datasource provides the working dataset and its readiness state.
type Datasource interface {
	Snapshot() []domain.Observation
	CheckReadiness(ctx context.Context) error
}

// Filterer runs the filter-dedup pipeline over a record set.
type Filterer interface {
	Filter(records []domain.Observation, spec domain.FilterSpec) (pipeline.Result, error)
}

// Server exposes the observation API plus health, readiness, and metrics
// HTTP endpoints.
type Server struct {
	httpServer *http.Server
	data       Datasource
	filterer   Filterer
	geocoder   domain.Geocoder // nil when the search proxy is disabled
	logger     *slog.Logger
}

// NewServer creates the API server. Pass a nil geocoder to disable the
// search endpoint (it then always answers with an empty candidate list).
func NewServer(addr string, data Datasource, filterer Filterer, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		data:     data,
		filterer: filterer,
		geocoder: geocoder,
		logger:   logger,
	}

	mux.HandleFunc("GET /api/v1/observations", s.handleObservations)
	mux.HandleFunc("GET /api/v1/species", s.handleSpecies)
	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.data.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
