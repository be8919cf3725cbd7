package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("snippet not found")

type Snippet struct {
	ID        string
	Text      string
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSummary reports whether a non-blank summary was already stored.
func (s Snippet) HasSummary() bool {
	return strings.TrimSpace(s.Summary) != ""
}

type CreateSnippet struct {
	Text    string
	Summary string
}

// UpdateSnippet carries optional field changes; nil fields are left as is.
type UpdateSnippet struct {
	Text    *string
	Summary *string
}

// SnippetStore persists snippets. FindByID and Update return a nil snippet
// and a nil error when the id is unknown.
type SnippetStore interface {
	Create(ctx context.Context, data CreateSnippet) (*Snippet, error)
	FindByID(ctx context.Context, id string) (*Snippet, error)
	FindAll(ctx context.Context) ([]Snippet, error)
	Update(ctx context.Context, id string, data UpdateSnippet) (*Snippet, error)
	Delete(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
