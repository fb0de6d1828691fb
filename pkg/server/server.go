// Package server exposes the provisioning pipeline over HTTP. Runs stream
// their progress as server-sent events; recorded history, the catalog and the
// timezone list are served as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/progress"
	"github.com/openfroyo/scaffolder/pkg/stores"
	"github.com/openfroyo/scaffolder/pkg/telemetry"
)

// CatalogSource supplies the catalog each request is validated against.
type CatalogSource interface {
	Catalog() engine.Catalog
}

// StaticCatalog serves a fixed catalog.
type StaticCatalog engine.Catalog

// Catalog implements CatalogSource.
func (c StaticCatalog) Catalog() engine.Catalog { return engine.Catalog(c) }

// History is the read side of the run store.
type History interface {
	GetRun(ctx context.Context, id string) (*stores.Run, error)
	ListRuns(ctx context.Context, filter stores.RunFilter) ([]*stores.Run, error)
	ListEvents(ctx context.Context, runID string) ([]*stores.Event, error)
	HealthCheck(ctx context.Context) error
}

// Server routes HTTP requests to the pipeline and the run history.
type Server struct {
	pipeline *engine.Pipeline
	catalog  CatalogSource
	history  History
	metrics  *telemetry.Metrics
	logger   zerolog.Logger
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the /api/runs endpoints.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics serves m on its configured path.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server.
func New(pipeline *engine.Pipeline, catalog CatalogSource, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		catalog:  catalog,
		logger:   logger.With().Str("component", "http-server").Logger(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /stream_create", s.handleStreamCreate)
	s.mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	s.mux.HandleFunc("GET /api/timezones", s.handleTimezones)
	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("GET /api/runs/{id}/events", s.handleRunEvents)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET "+s.metrics.Path(), s.metrics.Handler())
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Running streams see their request context cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// RawParamsFromQuery reads the stream_create query parameters.
func RawParamsFromQuery(q map[string][]string) engine.RawParams {
	get := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return engine.RawParams{
		ProjectName:     get("project_name"),
		Framework:       isChecked(get("install_django")),
		Packages:        q["packages"],
		Timezone:        get("timezone"),
		Submodules:      get("apps"),
		AccountUsername: get("su_username"),
		AccountEmail:    get("su_email"),
		AccountPassword: get("su_password"),
	}
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

func (s *Server) handleStreamCreate(w http.ResponseWriter, r *http.Request) {
	raw := RawParamsFromQuery(r.URL.Query())

	progress.SetSSEHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	out, err := s.pipeline.Provision(r.Context(), raw, s.catalog.Catalog(), progress.NewSSE(w))
	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.Str("project", out.Project).
		Str("run_id", out.RunID).
		Str("status", string(out.Status)).
		Msg("Stream finished")
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Catalog().Entries())
}

func (s *Server) handleTimezones(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, engine.Timezones())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	q := r.URL.Query()
	filter := stores.RunFilter{
		Project: q.Get("project"),
		Status:  engine.RunStatus(q.Get("status")),
	}
	if filter.Status != "" {
		if err := filter.Status.Validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", key, v))
				return
			}
			*dst = n
		}
	}

	runs, err := s.history.ListRuns(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	run, err := s.history.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.historyError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	id := r.PathValue("id")
	if _, err := s.history.GetRun(r.Context(), id); err != nil {
		s.historyError(w, err)
		return
	}
	events, err := s.history.ListEvents(r.Context(), id)
	if err != nil {
		s.historyError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.history != nil {
		if err := s.history.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, code, status)
}

func (s *Server) historyError(w http.ResponseWriter, err error) {
	if errors.Is(err, stores.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.logger.Error().Err(err).Msg("History lookup failed")
	s.writeError(w, http.StatusInternalServerError, "history lookup failed")
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}
