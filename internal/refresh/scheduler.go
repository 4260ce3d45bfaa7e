package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sysdash/internal/session"
)

// Invalidator drops every cached query result.
type Invalidator interface {
	InvalidateAll()
}

// RenderFunc redraws whatever the scheduler keeps fresh.
type RenderFunc func(ctx context.Context)

// Scheduler runs "invalidate, then render" every interval. A tick that is
// still running when the next one is due causes the next one to be skipped.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
	ctx      context.Context

	cache  Invalidator
	render RenderFunc
	log    *slog.Logger
}

func NewScheduler(c Invalidator, interval time.Duration, render RenderFunc, logger *slog.Logger) (*Scheduler, error) {
	if err := session.ValidateInterval(interval); err != nil {
		return nil, err
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		interval: interval,
		cache:    c,
		render:   render,
		log:      logger,
	}, nil
}

// Start schedules ticks; ctx is handed to every render.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.run))
	s.mu.Unlock()
	s.cron.Start()
	s.log.Info("auto refresh started", "interval", s.interval)
}

// Stop halts scheduling and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("auto refresh stopped")
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.cache.InvalidateAll()
	s.render(ctx)
	s.log.Debug("auto refresh tick", "duration_ms", time.Since(start).Milliseconds())
}
