// Package worker runs the periodic cache maintenance jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Sweeper removes expired cache entries and reports how many were removed.
type Sweeper interface {
	ClearExpired() int
}

// Warmer refreshes the cached digest of one content type.
type Warmer interface {
	Warm(ctx context.Context, contentType string) error
}

// WarmResult summarizes a warm-up run.
type WarmResult struct {
	Warmed   int
	Failed   int
	Duration time.Duration
}

// Scheduler owns a cron instance running the sweep and warm-up jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     SchedulerConfig
	sweeper Sweeper
	warmer  Warmer
	types   func() []string
	metrics *WorkerMetrics
	logger  *slog.Logger

	warming atomic.Bool
}

// NewScheduler validates cfg and registers the jobs. types is called on
// every warm-up run. warmer may be nil when warm-up is disabled.
func NewScheduler(cfg SchedulerConfig, sweeper Sweeper, warmer Warmer, types func() []string, metrics *WorkerMetrics, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}
	if cfg.WarmEnabled() && (warmer == nil || types == nil) {
		return nil, fmt.Errorf("invalid scheduler configuration: warm schedule set without a warmer")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		cfg:     cfg,
		sweeper: sweeper,
		warmer:  warmer,
		types:   types,
		metrics: metrics,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(cfg.SweepSchedule, func() { s.RunSweep() }); err != nil {
		return nil, fmt.Errorf("add sweep job: %w", err)
	}
	if cfg.WarmEnabled() {
		if _, err := s.cron.AddFunc(cfg.WarmSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.WarmTimeout)
			defer cancel()
			_, _ = s.RunWarm(ctx)
		}); err != nil {
			return nil, fmt.Errorf("add warm job: %w", err)
		}
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("sweep_schedule", s.cfg.SweepSchedule),
		slog.String("warm_schedule", s.cfg.WarmSchedule),
		slog.String("timezone", s.cfg.Timezone))
}

// Stop stops scheduling new runs and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunSweep removes expired cache entries once.
func (s *Scheduler) RunSweep() int {
	start := time.Now()
	s.metrics.RecordJobRun(JobSweep, "started")

	removed := s.sweeper.ClearExpired()

	s.metrics.RecordJobRun(JobSweep, "success")
	s.metrics.RecordJobDuration(JobSweep, time.Since(start).Seconds())
	s.metrics.RecordSwept(removed)
	s.metrics.RecordLastSuccess(JobSweep)
	s.logger.Info("cache sweep completed", slog.Int("removed", removed))
	return removed
}

// RunWarm refreshes every content type. Up to WarmConcurrency types are
// fetched at once. A failing type does not stop the others; the returned
// error is the first failure. Overlapping runs are skipped.
func (s *Scheduler) RunWarm(ctx context.Context) (WarmResult, error) {
	if !s.warming.CompareAndSwap(false, true) {
		s.logger.Warn("cache warm-up already running, skipping")
		return WarmResult{}, nil
	}
	defer s.warming.Store(false)

	start := time.Now()
	s.metrics.RecordJobRun(JobWarm, "started")
	s.logger.Info("cache warm-up started")

	types := s.types()
	results := make([]error, len(types))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.WarmConcurrency)
	for i, ct := range types {
		g.Go(func() error {
			err := s.warmer.Warm(gctx, ct)
			results[i] = err
			s.metrics.RecordWarmed(err == nil)
			if err != nil {
				s.logger.Warn("cache warm-up failed",
					slog.String("content_type", ct),
					slog.Any("error", err))
			}
			// Failures stay per type so the group context is not cancelled.
			return nil
		})
	}
	_ = g.Wait()

	res := WarmResult{Duration: time.Since(start)}
	var firstErr error
	for i, err := range results {
		if err == nil {
			res.Warmed++
			continue
		}
		res.Failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("warm %s: %w", types[i], err)
		}
	}

	s.metrics.RecordJobDuration(JobWarm, res.Duration.Seconds())
	if firstErr != nil {
		s.metrics.RecordJobRun(JobWarm, "failure")
	} else {
		s.metrics.RecordJobRun(JobWarm, "success")
		s.metrics.RecordLastSuccess(JobWarm)
	}
	s.logger.Info("cache warm-up completed",
		slog.Int("warmed", res.Warmed),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration))
	return res, firstErr
}
