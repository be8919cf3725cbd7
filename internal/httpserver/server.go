// Package httpserver exposes the snippet service over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"aisnippets/internal/summary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const healthPingTimeout = 2 * time.Second

type Config struct {
	AllowedOrigins []string
	// StreamTimeout bounds one summary stream; zero means no limit.
	StreamTimeout time.Duration
}

type Server struct {
	service *summary.Service
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

func New(service *summary.Service, cfg Config, log *slog.Logger) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &Server{
		service: service,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/v1/snippets", func(sr chi.Router) {
		sr.Post("/", s.handleCreateSnippet)
		sr.Post("/only-create", s.handleCreateSnippetWithoutSummary)
		sr.Get("/", s.handleListSnippets)
		sr.Get("/{id}", s.handleGetSnippet)
		sr.Delete("/{id}", s.handleDeleteSnippet)
		sr.Get("/{id}/generate-summary", s.handleGenerateSummary)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.InfoContext(r.Context(), "Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Database:  "connected",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	if err := s.service.Ping(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to ping database",
			"error", err)

		resp.Status = "error"
		resp.Database = "disconnected"
		s.respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
