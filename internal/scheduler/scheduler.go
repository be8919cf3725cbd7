package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	backfillTimeout       = 10 * time.Minute
)

type Backfiller interface {
	BackfillSummaries(ctx context.Context, limit int) (int, error)
}

// Scheduler periodically generates summaries for snippets that were created
// without one. Runs never overlap.
type Scheduler struct {
	ctx        context.Context
	cron       *cron.Cron
	backfiller Backfiller
	spec       string
	limit      int
	log        *slog.Logger
}

func New(
	ctx context.Context,
	backfiller Backfiller,
	spec string,
	limit int,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		ctx:        ctx,
		cron:       c,
		backfiller: backfiller,
		spec:       spec,
		limit:      limit,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.backfill); err != nil {
		return fmt.Errorf("add backfill job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop stops the scheduler and waits for a running backfill to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) backfill() {
	ctx, cancel := context.WithTimeout(s.ctx, backfillTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	start := time.Now()

	written, err := s.backfiller.BackfillSummaries(ctx, s.limit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to backfill summaries",
			"error", err,
			"written", written,
			"limit", s.limit)
		return
	}

	if written > 0 {
		s.log.InfoContext(ctx, "Summaries are backfilled",
			"written", written,
			"limit", s.limit,
			"durationSeconds", time.Since(start).Seconds())
	}
}
