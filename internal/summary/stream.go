package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aisnippets/internal/domain"
	"aisnippets/internal/summarizer"
)

var (
	// ErrCancelled is returned when the consumer went away before the stream
	// finished. Nothing is written and no terminal event is delivered.
	ErrCancelled       = errors.New("summary stream cancelled")
	ErrNilChunkHandler = errors.New("chunk handler is required")
)

type ErrorKind int

const (
	ErrorKindProviderSetup ErrorKind = iota + 1
	ErrorKindProviderIteration
	ErrorKindPersist
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindProviderSetup:
		return "provider_setup"
	case ErrorKindProviderIteration:
		return "provider_iteration"
	case ErrorKindPersist:
		return "persist"
	default:
		return "unknown"
	}
}

// StreamError is delivered to Handler.Error. Its message is the message of
// the underlying failure.
type StreamError struct {
	Kind ErrorKind
	Err  error
}

func (e *StreamError) Error() string { return e.Err.Error() }

func (e *StreamError) Unwrap() error { return e.Err }

// Handler receives the outcome of StreamSummary: zero or more Chunk calls
// followed by exactly one Complete or Error call, unless the stream was
// cancelled.
//
// Chunk is required. A nil Complete is a no-op. A nil Error makes
// StreamSummary return the *StreamError instead.
//
// A non-nil error from Chunk means the consumer is gone and stops the stream.
type Handler struct {
	Chunk    func(text string) error
	Complete func() error
	Error    func(err error) error
}

func (h Handler) complete() error {
	if h.Complete == nil {
		return nil
	}
	return h.Complete()
}

func (h Handler) fail(err *StreamError) error {
	if h.Error == nil {
		return err
	}
	return h.Error(err)
}

type EventKind int

const (
	EventChunk EventKind = iota + 1
	EventComplete
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one element of a summary stream. Text is the fragment for
// EventChunk, the message for EventError and empty for EventComplete.
type Event struct {
	Kind EventKind
	Text string
}

// Sink adapts a single event callback to a Handler.
func Sink(emit func(Event) error) Handler {
	return Handler{
		Chunk: func(text string) error {
			return emit(Event{Kind: EventChunk, Text: text})
		},
		Complete: func() error {
			return emit(Event{Kind: EventComplete})
		},
		Error: func(err error) error {
			return emit(Event{Kind: EventError, Text: err.Error()})
		},
	}
}

// StreamSummary produces the summary of snippet id incrementally.
//
// A snippet that already has a summary completes immediately. Otherwise every
// non-empty provider fragment is passed to h.Chunk in order, and once the
// provider is exhausted the concatenation of those fragments is stored as the
// summary before h.Complete is called. The summary is written only after a
// successful, uncancelled run.
//
// An unknown id returns domain.ErrNotFound without calling h.
func (s *Service) StreamSummary(ctx context.Context, id string, h Handler) error {
	if h.Chunk == nil {
		return ErrNilChunkHandler
	}

	snippet, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find snippet: %w", err)
	}
	if snippet == nil {
		return fmt.Errorf("find snippet %s: %w", id, domain.ErrNotFound)
	}

	if snippet.HasSummary() {
		return h.complete()
	}

	stream, err := s.summarizer.SummarizeStream(ctx, summarizer.Input{Text: snippet.Text})
	if err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		s.log.ErrorContext(ctx, "Failed to start summary stream",
			"error", err,
			"snippetID", id)

		return h.fail(&StreamError{Kind: ErrorKindProviderSetup, Err: err})
	}
	defer func() {
		if err := stream.Close(); err != nil {
			s.log.WarnContext(ctx, "Failed to close summary stream",
				"error", err,
				"snippetID", id)
		}
	}()

	var acc strings.Builder
	for stream.Next() {
		if ctx.Err() != nil {
			return s.cancelled(ctx, id, ctx.Err())
		}

		fragment := stream.Current()
		if fragment == "" {
			continue
		}

		acc.WriteString(fragment)

		if err := h.Chunk(fragment); err != nil {
			return s.cancelled(ctx, id, err)
		}
	}

	if ctx.Err() != nil {
		return s.cancelled(ctx, id, ctx.Err())
	}

	if err := stream.Err(); err != nil {
		s.log.ErrorContext(ctx, "Summary stream failed",
			"error", err,
			"snippetID", id,
			"receivedLength", acc.Len())

		return h.fail(&StreamError{Kind: ErrorKindProviderIteration, Err: err})
	}

	text := acc.String()

	updated, err := s.store.Update(ctx, id, domain.UpdateSnippet{Summary: &text})
	if err == nil && updated == nil {
		err = fmt.Errorf("update snippet %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to update snippet summary",
			"error", err,
			"snippetID", id)

		return h.fail(&StreamError{Kind: ErrorKindPersist, Err: err})
	}

	return h.complete()
}

func (s *Service) cancelled(ctx context.Context, id string, cause error) error {
	s.log.InfoContext(ctx, "Summary stream cancelled",
		"cause", cause,
		"snippetID", id)

	return ErrCancelled
}
