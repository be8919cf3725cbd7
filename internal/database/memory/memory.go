// Package memory keeps snippets in process memory. Data is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"aisnippets/internal/domain"

	"github.com/google/uuid"
)

var _ domain.SnippetStore = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	snippets []domain.Snippet
	now      func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Create(_ context.Context, data domain.CreateSnippet) (*domain.Snippet, error) {
	now := s.now()
	snippet := domain.Snippet{
		ID:        uuid.NewString(),
		Text:      data.Text,
		Summary:   data.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.snippets = append(s.snippets, snippet)
	s.mu.Unlock()

	return &snippet, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}

	snippet := s.snippets[i]
	return &snippet, nil
}

// FindAll returns snippets newest first.
func (s *Store) FindAll(_ context.Context) ([]domain.Snippet, error) {
	s.mu.RLock()
	out := slices.Clone(s.snippets)
	s.mu.RUnlock()

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.Snippet) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if out == nil {
		out = []domain.Snippet{}
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, id string, data domain.UpdateSnippet) (*domain.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}

	updated := s.snippets[i]
	if data.Text != nil {
		updated.Text = *data.Text
	}
	if data.Summary != nil {
		updated.Summary = *data.Summary
	}
	updated.UpdatedAt = s.now()

	s.snippets[i] = updated
	return &updated, nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}

	s.snippets = slices.Delete(s.snippets, i, i+1)
	return true, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Count returns the number of stored snippets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.snippets)
}

// Clear drops every snippet.
func (s *Store) Clear() {
	s.mu.Lock()
	s.snippets = nil
	s.mu.Unlock()
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.snippets, func(sn domain.Snippet) bool {
		return sn.ID == id
	})
}
