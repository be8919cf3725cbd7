package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"aisnippets/internal/domain"
	"aisnippets/internal/summary"

	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 1 << 20

type createSnippetRequest struct {
	Text string `json:"text"`
}

type snippetResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSnippetResponse(s domain.Snippet) snippetResponse {
	return snippetResponse{
		ID:        s.ID,
		Text:      s.Text,
		Summary:   s.Summary,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (s *Server) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req createSnippetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	return req.Text, true
}

func (s *Server) handleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	snippet, err := s.service.CreateSnippet(r.Context(), text)
	if err != nil {
		if errors.Is(err, summary.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, "text is required")
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to create snippet",
			"error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to create snippet")
		return
	}

	s.respondJSON(w, http.StatusCreated, toSnippetResponse(*snippet))
}

func (s *Server) handleCreateSnippetWithoutSummary(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	snippet, err := s.service.CreateSnippetWithoutSummary(r.Context(), text)
	if err != nil {
		if errors.Is(err, summary.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, "text is required")
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to create snippet",
			"error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to create snippet")
		return
	}

	s.respondJSON(w, http.StatusCreated, toSnippetResponse(*snippet))
}

func (s *Server) handleListSnippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := s.service.ListSnippets(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to list snippets",
			"error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to get snippets")
		return
	}

	resp := make([]snippetResponse, 0, len(snippets))
	for _, snippet := range snippets {
		resp = append(resp, toSnippetResponse(snippet))
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snippet, err := s.service.GetSnippet(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Snippet not found")
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to get snippet",
			"error", err,
			"snippetID", id)
		s.respondError(w, http.StatusInternalServerError, "Failed to get snippet")
		return
	}

	s.respondJSON(w, http.StatusOK, toSnippetResponse(*snippet))
}

func (s *Server) handleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.DeleteSnippet(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Snippet not found")
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to delete snippet",
			"error", err,
			"snippetID", id)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete snippet")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
