package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type stubBackfiller struct {
	mu     sync.Mutex
	limits []int
	err    error
	called chan struct{}
}

func (s *stubBackfiller) BackfillSummaries(_ context.Context, limit int) (int, error) {
	s.mu.Lock()
	s.limits = append(s.limits, limit)
	s.mu.Unlock()

	if s.called != nil {
		select {
		case s.called <- struct{}{}:
		default:
		}
	}

	return 1, s.err
}

func (s *stubBackfiller) calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int(nil), s.limits...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBackfillPassesLimit(t *testing.T) {
	b := &stubBackfiller{}
	s := New(context.Background(), b, "@every 1h", 7, discardLogger())

	s.backfill()

	if got := b.calls(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected one call with limit 7, got %v", got)
	}
}

func TestBackfillLogsFailure(t *testing.T) {
	b := &stubBackfiller{err: errors.New("store down")}
	s := New(context.Background(), b, "@every 1h", 5, discardLogger())

	s.backfill()

	if len(b.calls()) != 1 {
		t.Fatalf("expected backfill to be attempted")
	}
}

func TestBackfillSkipsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &stubBackfiller{}
	s := New(ctx, b, "@every 1h", 5, discardLogger())

	s.backfill()

	if len(b.calls()) != 0 {
		t.Fatalf("expected no backfill after shutdown, got %v", b.calls())
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(context.Background(), &stubBackfiller{}, "not a spec", 5, discardLogger())

	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestStartRunsJob(t *testing.T) {
	b := &stubBackfiller{called: make(chan struct{}, 1)}
	s := New(context.Background(), b, "@every 1s", 3, discardLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-b.called:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected scheduled backfill to run")
	}
}
