package client

import (
	"context"
	"sync"
)

// State is a snapshot of a Session.
type State struct {
	Content   string
	Complete  bool
	Err       error
	Streaming bool
}

// Session tracks the summary stream of one snippet. At most one stream is
// open per session; callbacks from a stream that was cancelled or replaced
// are ignored.
type Session struct {
	client *Client
	id     string

	mu     sync.Mutex
	state  State
	run    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *Client) NewSession(id string) *Session {
	done := make(chan struct{})
	close(done)

	return &Session{client: c, id: id, done: done}
}

// Start opens the stream unless one is already open, and returns a channel
// that is closed when the current stream ends.
func (s *Session) Start(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Streaming {
		return s.done
	}
	return s.startLocked(ctx)
}

// Retry cancels the current stream, if any, and opens a fresh one.
func (s *Session) Retry(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detachLocked()
	return s.startLocked(ctx)
}

// Cancel closes the current stream. Content received so far is kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detachLocked()
}

// Done is closed when the most recently started stream ends.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Session) detachLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.run++
	s.state.Streaming = false
}

func (s *Session) startLocked(ctx context.Context) <-chan struct{} {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.run++
	run := s.run
	s.cancel = cancel
	s.done = done
	s.state = State{Streaming: true}

	go func() {
		defer close(done)
		defer cancel()

		_ = s.client.StreamSummary(runCtx, s.id, Callbacks{
			Chunk: func(text string) {
				s.update(run, func(st *State) { st.Content += text })
			},
			Complete: func() {
				s.update(run, func(st *State) { st.Complete = true })
			},
			Error: func(err error) {
				s.update(run, func(st *State) { st.Err = err })
			},
		})

		s.update(run, func(st *State) { st.Streaming = false })
	}()

	return done
}

func (s *Session) update(run uint64, fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		return
	}
	fn(&s.state)
}
