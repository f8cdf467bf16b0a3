package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is one periodic unit of work.
type Job func(ctx context.Context) error

// Scheduler periodically runs a Job. The first run happens right after Start.
type Scheduler struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	job      Job
	log      *zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that runs job every interval.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(name string, interval time.Duration, job Job, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		timeout:  30 * time.Second,
		job:      job,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Debug().Str("job", s.name).Dur("interval", s.interval).Msg("scheduler started")
	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			s.log.Debug().Str("job", s.name).Msg("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// runOnce runs the job with a bounded timeout.
func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.job(runCtx); err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Str("job", s.name).Msg("scheduled job failed")
	}
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = make(chan struct{})
}
