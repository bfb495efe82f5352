package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
	"github.com/fastygo/todoboard/usecase"
)

// maxSweepRounds bounds one Sweep call when batches keep filling up.
const maxSweepRounds = 100

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Scanned int
	Updated int
	Failed  int
	// Stale counts tasks that changed status between the read and the write.
	Stale   int
	Skipped bool
}

// StatusSweeper periodically moves expired ongoing tasks to failure.
type StatusSweeper struct {
	tasks       repository.TaskRepository
	events      repository.EventRepository
	invalidator usecase.AnalyticsInvalidator
	logger      *zap.Logger
	cron        *cron.Cron
	cfg         SweeperConfig
	now         func() time.Time

	running chan struct{}
}

func NewStatusSweeper(
	tasks repository.TaskRepository,
	events repository.EventRepository,
	invalidator usecase.AnalyticsInvalidator,
	logger *zap.Logger,
	cfg SweeperConfig,
) *StatusSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &StatusSweeper{
		tasks:       tasks,
		events:      events,
		invalidator: invalidator,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		running:     make(chan struct{}, 1),
		cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	_, _ = s.cron.AddFunc(everySchedule(cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		result, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("status sweep failed", zap.Error(err))
			return
		}
		if result.Updated > 0 || result.Failed > 0 || result.Stale > 0 {
			s.logger.Info("status sweep finished",
				zap.Int("scanned", result.Scanned),
				zap.Int("updated", result.Updated),
				zap.Int("stale", result.Stale),
				zap.Int("failed", result.Failed))
		}
	})

	return s
}

// WithClock replaces the time source. Intended for tests.
func (s *StatusSweeper) WithClock(now func() time.Time) *StatusSweeper {
	s.now = now
	return s
}

func (s *StatusSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("status sweeper started", zap.Duration("interval", s.cfg.Interval))
}

func (s *StatusSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("status sweeper stopped")
}

// Sweep re-derives the status of every expired ongoing task and persists the
// ones that changed. A write only lands while the stored status still matches
// what was read, so a task completed mid-sweep stays a success. Tasks whose
// update fails are logged and left for the next pass. A call that overlaps a
// running sweep returns at once with Skipped set.
func (s *StatusSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	select {
	case s.running <- struct{}{}:
	default:
		result.Skipped = true
		return result, nil
	}
	defer func() { <-s.running }()

	now := s.now()
	for round := 0; round < maxSweepRounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := s.tasks.ListExpired(ctx, now, s.cfg.BatchSize)
		if err != nil {
			return result, err
		}
		result.Scanned += len(batch)

		updated := 0
		for i := range batch {
			task := &batch[i]
			previous := task.Status
			if !task.Refresh(now) {
				continue
			}
			moved, err := s.tasks.TransitionStatus(ctx, task.ID, previous, task.Status)
			if err != nil {
				result.Failed++
				s.logger.Warn("failed to persist derived status",
					zap.String("todo_id", task.ID),
					zap.String("status", string(task.Status)),
					zap.Error(err))
				continue
			}
			if !moved {
				result.Stale++
				continue
			}
			updated++
			s.recordChange(ctx, task.ID, previous, task.Status)
		}
		result.Updated += updated

		if len(batch) < s.cfg.BatchSize || updated == 0 {
			break
		}
	}

	if result.Updated > 0 && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
		}
	}
	return result, nil
}

// Wait blocks until no sweep is running or ctx is done.
func (s *StatusSweeper) Wait(ctx context.Context) error {
	select {
	case s.running <- struct{}{}:
		<-s.running
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StatusSweeper) recordChange(ctx context.Context, taskID string, from, to domain.TaskStatus) {
	if s.events == nil {
		return
	}
	event := domain.NewTaskEvent(taskID, domain.EventStatusChanged, domain.StatusChange{From: from, To: to})
	if err := s.events.Append(ctx, &event); err != nil {
		s.logger.Warn("failed to record status change", zap.String("todo_id", taskID), zap.Error(err))
	}
}
