// Package scheduler drives the per-minute tracker tick.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec fires at the start of every minute.
const DefaultSpec = "* * * * *"

// TickFunc does the work of one tick.
type TickFunc func(ctx context.Context, now time.Time) error

// Scheduler runs a TickFunc on a cron schedule in UTC. A tick that is still
// running when the next one is due causes that next one to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	tick   TickFunc
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	logger *zap.Logger
}

// New creates a scheduler. An empty spec uses DefaultSpec.
func New(spec string, tick TickFunc, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}

	logger = logger.Named("scheduler")
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		tick:   tick,
		now:    time.Now,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return s, nil
}

// Start begins firing ticks until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next", s.Next()))
}

// Stop prevents further ticks and waits for a running one to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Next returns the time of the next scheduled tick.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce runs a single tick immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.safeTick(ctx, s.now())
}

func (s *Scheduler) run() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	start := s.now()
	if err := s.safeTick(ctx, start); err != nil {
		s.logger.Error("Tick failed", zap.Error(err))
		return
	}

	s.logger.Debug("Tick finished", zap.Duration("duration", time.Since(start)))
}

// safeTick runs the tick, turning a panic into an error.
func (s *Scheduler) safeTick(ctx context.Context, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Tick panicked",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()

	return s.tick(ctx, now.UTC())
}
