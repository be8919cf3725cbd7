// Package summary owns the snippet operations: creating snippets with or
// without a summary, streaming a summary for an existing snippet and
// backfilling summaries that were never generated.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aisnippets/internal/domain"
	"aisnippets/internal/summarizer"
)

var ErrEmptyText = errors.New("text is required")

type Service struct {
	store      domain.SnippetStore
	summarizer summarizer.Summarizer
	log        *slog.Logger
}

func New(
	store domain.SnippetStore,
	summarizer summarizer.Summarizer,
	log *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		summarizer: summarizer,
		log:        log,
	}
}

// CreateSnippet summarises text in one provider call and stores both.
func (s *Service) CreateSnippet(ctx context.Context, text string) (*domain.Snippet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	summary, err := s.summarizer.Summarize(ctx, summarizer.Input{Text: text})
	if err != nil {
		return nil, fmt.Errorf("summarize snippet: %w", err)
	}

	snippet, err := s.store.Create(ctx, domain.CreateSnippet{Text: text, Summary: summary})
	if err != nil {
		return nil, fmt.Errorf("create snippet: %w", err)
	}

	return snippet, nil
}

// CreateSnippetWithoutSummary stores text with an empty summary so that it
// can be summarised later through StreamSummary or the backfill.
func (s *Service) CreateSnippetWithoutSummary(ctx context.Context, text string) (*domain.Snippet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	snippet, err := s.store.Create(ctx, domain.CreateSnippet{Text: text})
	if err != nil {
		return nil, fmt.Errorf("create snippet: %w", err)
	}

	return snippet, nil
}

func (s *Service) GetSnippet(ctx context.Context, id string) (*domain.Snippet, error) {
	snippet, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find snippet: %w", err)
	}
	if snippet == nil {
		return nil, fmt.Errorf("find snippet %s: %w", id, domain.ErrNotFound)
	}

	return snippet, nil
}

func (s *Service) ListSnippets(ctx context.Context) ([]domain.Snippet, error) {
	snippets, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find snippets: %w", err)
	}

	return snippets, nil
}

func (s *Service) DeleteSnippet(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	if !deleted {
		return fmt.Errorf("delete snippet %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// BackfillSummaries summarises up to limit snippets that have no summary,
// oldest first. A non-positive limit processes all of them. Failures are
// logged and skipped; the number of stored summaries is returned.
func (s *Service) BackfillSummaries(ctx context.Context, limit int) (int, error) {
	snippets, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("find snippets: %w", err)
	}

	var pending []domain.Snippet
	for i := len(snippets) - 1; i >= 0; i-- {
		if !snippets[i].HasSummary() && strings.TrimSpace(snippets[i].Text) != "" {
			pending = append(pending, snippets[i])
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	written := 0
	for _, snippet := range pending {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		summary, err := s.summarizer.Summarize(ctx, summarizer.Input{Text: snippet.Text})
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to summarize snippet",
				"error", err,
				"snippetID", snippet.ID)
			continue
		}

		updated, err := s.store.Update(ctx, snippet.ID, domain.UpdateSnippet{Summary: &summary})
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to update snippet summary",
				"error", err,
				"snippetID", snippet.ID)
			continue
		}
		if updated == nil {
			s.log.WarnContext(ctx, "Snippet disappeared before backfill",
				"snippetID", snippet.ID)
			continue
		}

		written++
	}

	return written, nil
}

// Ping checks that the snippet store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
