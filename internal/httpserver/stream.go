package httpserver

import (
	"context"
	"errors"
	"net/http"

	"aisnippets/internal/domain"
	"aisnippets/internal/sse"
	"aisnippets/internal/summary"

	"github.com/go-chi/chi/v5"
)

const (
	eventComplete = "complete"
	eventError    = "error"
)

// handleGenerateSummary streams the summary of one snippet as
// text/event-stream frames: an unnamed data frame per fragment, then a
// "complete" or "error" frame. An unknown snippet gets a JSON 404 before the
// stream is opened.
func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx := r.Context()
	if s.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StreamTimeout)
		defer cancel()
	}

	if _, err := s.service.GetSnippet(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Snippet not found")
			return
		}

		s.log.ErrorContext(ctx, "Failed to get snippet",
			"error", err,
			"snippetID", id)
		s.respondError(w, http.StatusInternalServerError, "Failed to generate summary")
		return
	}

	sw := sse.NewWriter(w)
	if err := sw.Open(); err != nil {
		s.log.WarnContext(ctx, "Failed to open summary stream",
			"error", err,
			"snippetID", id)
		return
	}

	err := s.service.StreamSummary(ctx, id, summary.Sink(func(e summary.Event) error {
		switch e.Kind {
		case summary.EventChunk:
			return sw.Data(e.Text)
		case summary.EventComplete:
			return sw.Event(eventComplete, "")
		case summary.EventError:
			return sw.Event(eventError, e.Text)
		}
		return nil
	}))

	switch {
	case err == nil:
	case errors.Is(err, summary.ErrCancelled):
		if r.Context().Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.log.WarnContext(r.Context(), "Summary stream timed out",
				"snippetID", id,
				"timeout", s.cfg.StreamTimeout)
			_ = sw.Event(eventError, "Summary generation timed out")
		}
	case errors.Is(err, domain.ErrNotFound):
		_ = sw.Event(eventError, "Snippet not found")
	default:
		s.log.WarnContext(r.Context(), "Failed to deliver summary stream",
			"error", err,
			"snippetID", id)
	}
}
