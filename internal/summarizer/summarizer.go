package summarizer

import (
	"context"
	"errors"
)

var ErrEmptyInput = errors.New("input is empty")

// Input describes the payload for a summary request.
type Input struct {
	// Text contains the original snippet text to summarise.
	Text string
}

// Summarizer produces summaries either in one call or as a stream of
// text fragments.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
	// SummarizeStream fails synchronously when the request cannot be started.
	// Errors that happen after that are reported by Stream.Err.
	SummarizeStream(ctx context.Context, input Input) (Stream, error)
}

// Stream is a finite, non-restartable sequence of summary fragments.
//
//	for stream.Next() {
//		fragment := stream.Current()
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Fragments may be empty. Close releases the underlying connection and may be
// called at any point, including before the stream is exhausted.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}
