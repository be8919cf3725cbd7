// Package summarizertest provides a scriptable summarizer.Summarizer for tests.
package summarizertest

import (
	"context"
	"sync"

	"aisnippets/internal/summarizer"
)

var _ summarizer.Summarizer = (*Stub)(nil)

// Stub returns canned summaries and fragment streams and counts calls.
//
// Each stream yields Fragments in order and then reports StreamErr from Err.
// When a gate is set, every fragment waits for a value on the gate (or for
// the request context to end) before it is produced.
type Stub struct {
	mu          sync.Mutex
	summary     string
	summaryErr  error
	fragments   []string
	setupErr    error
	streamErr   error
	gate        chan struct{}
	calls       int
	streamCalls int
	closed      chan struct{}
}

func New(fragments ...string) *Stub {
	return &Stub{
		fragments: fragments,
		closed:    make(chan struct{}, 64),
	}
}

func (s *Stub) WithSummary(summary string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary = summary
	s.summaryErr = err
	return s
}

func (s *Stub) WithSetupError(err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setupErr = err
	return s
}

func (s *Stub) WithStreamError(err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streamErr = err
	return s
}

// SetGate makes subsequently opened streams wait on gate; nil removes it.
func (s *Stub) SetGate(gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gate = gate
}

func (s *Stub) Summarize(_ context.Context, _ summarizer.Input) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	return s.summary, s.summaryErr
}

func (s *Stub) SummarizeStream(ctx context.Context, _ summarizer.Input) (summarizer.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streamCalls++
	if s.setupErr != nil {
		return nil, s.setupErr
	}

	return &stream{
		ctx:       ctx,
		fragments: append([]string(nil), s.fragments...),
		tailErr:   s.streamErr,
		gate:      s.gate,
		closed:    s.closed,
	}, nil
}

func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func (s *Stub) StreamCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.streamCalls
}

// Closed receives a value every time a stream is closed.
func (s *Stub) Closed() <-chan struct{} {
	return s.closed
}

type stream struct {
	ctx       context.Context
	fragments []string
	tailErr   error
	gate      chan struct{}
	closed    chan struct{}
	next      int
	current   string
	err       error
	done      bool
}

func (s *stream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	if s.next >= len(s.fragments) {
		s.err = s.tailErr
		return false
	}

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
	} else if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}

	s.current = s.fragments[s.next]
	s.next++

	return true
}

func (s *stream) Current() string { return s.current }

func (s *stream) Err() error { return s.err }

func (s *stream) Close() error {
	if s.done {
		return nil
	}
	s.done = true

	select {
	case s.closed <- struct{}{}:
	default:
	}

	return nil
}
