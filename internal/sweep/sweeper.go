// Package sweep periodically re-derives meeting statuses from the clock.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultInterval is the period between meeting status refreshes.
const DefaultInterval = time.Minute

// Refresher re-derives meeting statuses and reports how many changed.
type Refresher interface {
	RefreshMeetingStatuses(ctx context.Context) int
}

// Sweeper runs a refresh once on Start and then on a fixed interval.
type Sweeper struct {
	target   Refresher
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	runs   int
}

// New creates a Sweeper. A non-positive interval means DefaultInterval.
// Intervals are rounded down to whole seconds, with a one second minimum.
func New(target Refresher, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Start performs an immediate refresh and schedules the periodic one.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron = cron.New(
		cron.WithLogger(cronLogger{s.logger.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger.Sugar()})),
	)
	c := s.cron
	c.Schedule(cron.Every(s.interval), cron.FuncJob(s.run))
	s.mu.Unlock()

	s.run()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Stop may have run during the first refresh.
	if s.cron != c {
		return
	}
	c.Start()
	s.logger.Info("meeting sweep started", zap.Duration("interval", s.interval))
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	cancel := s.cancel
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.logger.Info("meeting sweep stopped")
}

// Runs reports how many refreshes have completed.
func (s *Sweeper) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Sweeper) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	changed := s.target.RefreshMeetingStatuses(ctx)
	if changed > 0 {
		s.logger.Info("meeting statuses changed", zap.Int("count", changed))
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
