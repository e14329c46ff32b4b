// Package server exposes the query service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grademap/packages/domain"
	"grademap/packages/logging"
	"grademap/packages/query"
)

type Querier interface {
	ListGrades(ctx context.Context, sourceISO, destination string) ([]domain.GradeMatch, error)
	GetGrade(ctx context.Context, sourceISO, grade, destination string) ([]domain.GradeMatch, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	queries Querier
	health  Pinger
	router  *chi.Mux

	mu     sync.Mutex
	server *http.Server
}

func New(queries Querier, health Pinger, requestTimeout time.Duration) *Server {
	s := &Server{
		queries: queries,
		health:  health,
		router:  chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		s.router.Use(middleware.Timeout(requestTimeout))
	}

	s.router.Get("/", s.handleRoot)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/grades/{source}/{destination}", s.handleGetGrade)
	s.router.Get("/list-grades/{source}/{destination}", s.handleListGrades)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	slog.Info("Starting HTTP server", "address", addr)
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("Health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetGrade(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("grade") {
		writeError(w, http.StatusBadRequest, "missing query parameter: grade")
		return
	}
	matches, err := s.queries.GetGrade(r.Context(),
		chi.URLParam(r, "source"),
		r.URL.Query().Get("grade"),
		chi.URLParam(r, "destination"),
	)
	s.respond(w, r, matches, err)
}

func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	matches, err := s.queries.ListGrades(r.Context(),
		chi.URLParam(r, "source"),
		chi.URLParam(r, "destination"),
	)
	s.respond(w, r, matches, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, matches []domain.GradeMatch, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, matches)
	case errors.Is(err, query.ErrNoInformation):
		// Existing clients expect a bare JSON string here, not a 404.
		writeJSON(w, http.StatusOK, err.Error())
	case errors.Is(err, domain.ErrUnknownDestination):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context()).Error("Query failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
