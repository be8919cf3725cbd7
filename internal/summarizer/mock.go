package summarizer

import (
	"context"
	"time"
)

const (
	mockPrefix       = "Summary: "
	mockMaxTextRunes = 30
	mockChunkRunes   = 5
)

// MockSummarizer produces deterministic summaries without a remote provider.
// It is used when no provider key is configured and in tests.
type MockSummarizer struct {
	delay time.Duration
}

// NewMockSummarizer returns a mock whose stream waits delay between chunks.
func NewMockSummarizer(delay time.Duration) *MockSummarizer {
	return &MockSummarizer{delay: max(delay, 0)}
}

// MockSummary is "Summary: " followed by the first 30 runes of text, with
// "..." appended when text was cut.
func MockSummary(text string) string {
	runes := []rune(text)
	if len(runes) <= mockMaxTextRunes {
		return mockPrefix + text
	}

	return mockPrefix + string(runes[:mockMaxTextRunes]) + "..."
}

func (m *MockSummarizer) Summarize(_ context.Context, input Input) (string, error) {
	return MockSummary(input.Text), nil
}

// SummarizeStream splits the mock summary into 5-rune chunks.
func (m *MockSummarizer) SummarizeStream(ctx context.Context, input Input) (Stream, error) {
	runes := []rune(MockSummary(input.Text))

	var chunks []string
	for i := 0; i < len(runes); i += mockChunkRunes {
		chunks = append(chunks, string(runes[i:min(i+mockChunkRunes, len(runes))]))
	}

	return &delayedStream{ctx: ctx, chunks: chunks, delay: m.delay}, nil
}

type delayedStream struct {
	ctx     context.Context
	chunks  []string
	delay   time.Duration
	next    int
	current string
	err     error
	closed  bool
}

func (s *delayedStream) Next() bool {
	if s.closed || s.err != nil || s.next >= len(s.chunks) {
		return false
	}

	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}

	if s.next > 0 && s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			s.err = s.ctx.Err()
			return false
		}
	}

	s.current = s.chunks[s.next]
	s.next++

	return true
}

func (s *delayedStream) Current() string { return s.current }

func (s *delayedStream) Err() error { return s.err }

func (s *delayedStream) Close() error {
	s.closed = true
	return nil
}
