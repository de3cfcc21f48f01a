package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Submitter queues jobs
type Submitter interface {
	Submit(kind JobKind) (*Job, error)
}

// Trigger submits each job kind on its own interval
type Trigger struct {
	intervals map[JobKind]time.Duration
	submitter Submitter
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// IntervalsFrom maps the configured intervals to job kinds. Zero intervals
// are left out.
func IntervalsFrom(cfg config.SchedulerConfig) map[JobKind]time.Duration {
	out := make(map[JobKind]time.Duration)
	for kind, d := range map[JobKind]time.Duration{
		JobKindProjectionCheck: cfg.ProjectionCheckInterval,
		JobKindStockAlertSweep: cfg.AlertSweepInterval,
		JobKindTrialBalance:    cfg.TrialBalanceInterval,
	} {
		if d > 0 {
			out[kind] = d
		}
	}
	return out
}

// NewTrigger creates a new trigger
func NewTrigger(intervals map[JobKind]time.Duration, submitter Submitter, logger *zap.Logger) *Trigger {
	return &Trigger{
		intervals: intervals,
		submitter: submitter,
		logger:    logger,
	}
}

// Start starts one ticker loop per job kind
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for kind, every := range t.intervals {
		t.wg.Add(1)
		go t.runLoop(ctx, kind, every)
		t.logger.Info("Maintenance job scheduled",
			zap.String("kind", string(kind)),
			zap.Duration("every", every),
		)
	}
	return nil
}

// Stop stops the ticker loops
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) runLoop(ctx context.Context, kind JobKind, every time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(kind)
		}
	}
}

func (t *Trigger) fire(kind JobKind) {
	if _, err := t.submitter.Submit(kind); err != nil {
		level := zap.WarnLevel
		if errors.Is(err, ErrSchedulerNotRunning) {
			level = zap.DebugLevel
		}
		t.logger.Log(level, "Failed to submit maintenance job",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
