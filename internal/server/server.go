// Package server provides the HTTP API for starting and observing resume runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/download"
	"github.com/jonathan/resume-tailor/internal/logging"
	"github.com/jonathan/resume-tailor/internal/server/middleware"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// ProfileLister lists stored resume profiles
type ProfileLister interface {
	List(ctx context.Context) ([]string, error)
}

// RunHistory reads the run ledger
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRunSteps(ctx context.Context, runID uuid.UUID) ([]db.RunStep, error)
	CountsForDate(ctx context.Context, day string) ([]db.ProfileCount, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	controller *workflow.Controller
	profiles   ProfileLister
	downloads  *download.MemoryTrigger
	history    RunHistory
	logger     *slog.Logger

	// runCtx outlives individual requests so runs continue after the starting request returns
	runCtx context.Context
}

// Config holds server configuration
type Config struct {
	Port    int
	AuthKey string

	Controller *workflow.Controller
	Profiles   ProfileLister
	Downloads  *download.MemoryTrigger // must be the controller's download trigger
	History    RunHistory              // optional
	Logger     *slog.Logger
}

// New creates a new server instance
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		controller: cfg.Controller,
		profiles:   cfg.Profiles,
		downloads:  cfg.Downloads,
		history:    cfg.History,
		logger:     logger,
		runCtx:     context.Background(),
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /profiles", s.handleProfiles)

	mux.HandleFunc("POST /runs", s.handleStartRun)
	mux.HandleFunc("POST /runs/stream", s.handleRunStream)
	mux.HandleFunc("GET /runs/current", s.handleCurrentRun)
	mux.HandleFunc("GET /runs/current/events", s.handleRunEvents)
	mux.HandleFunc("GET /runs/current/downloads/{filename}", s.handleDownload)

	mux.HandleFunc("GET /runs/history", s.handleRunHistory)
	mux.HandleFunc("GET /runs/history/{id}", s.handleRunDetail)
	mux.HandleFunc("GET /counts/{date}", s.handleCounts)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(middleware.RequireKey(cfg.AuthKey, "/health")(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed runs
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Runs started through the API use ctx, so cancellation also reaches in-flight calls.
func (s *Server) Run(ctx context.Context) error {
	s.runCtx = ctx

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.controller.Dispose()
	s.logger.Info("server stopped")
	return err
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.AuthHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE working through the logging wrapper
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"busy":   s.controller.Busy(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFrom writes err with the status HTTPStatus assigns it
func (s *Server) errorFrom(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.errorResponse(w, status, err.Error())
}
