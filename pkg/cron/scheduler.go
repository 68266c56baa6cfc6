// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PoolStatsSchedule is how often connection pool stats are published.
const PoolStatsSchedule = "@every 30s"

// Rate limiter buckets idle for LimiterMaxIdle are dropped every
// LimiterSweepSchedule.
const (
	LimiterSweepSchedule = "@every 5m"
	LimiterMaxIdle       = 10 * time.Minute
)

// Sweeper drops idle per-client state; *interceptors.RateLimiter implements it.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// PoolStatter reports connection pool usage; *db.DB implements it.
type PoolStatter interface {
	PoolStats() (total, idle, acquired int32)
}

// PoolStatsSink receives the stats; *metrics.Metrics implements it.
type PoolStatsSink interface {
	SetPoolStats(total, idle, acquired int32)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron    *cron.Cron
	pool    PoolStatter
	sink    PoolStatsSink
	sweeper Sweeper
	logger  *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(pool PoolStatter, sink PoolStatsSink, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:   c,
		pool:   pool,
		sink:   sink,
		logger: logger,
	}
}

// WithLimiterSweep adds the job that evicts idle rate limiter buckets.
func (s *Scheduler) WithLimiterSweep(sweeper Sweeper) *Scheduler {
	s.sweeper = sweeper
	return s
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PoolStatsSchedule, s.publishPoolStats); err != nil {
		return err
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(LimiterSweepSchedule, s.sweepLimiter); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs. The returned context is done
// once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs every job once, immediately.
func (s *Scheduler) RunNow() {
	s.publishPoolStats()
	if s.sweeper != nil {
		s.sweepLimiter()
	}
}

func (s *Scheduler) sweepLimiter() {
	if removed := s.sweeper.Sweep(LimiterMaxIdle); removed > 0 {
		s.logger.Debug("idle rate limiter buckets dropped", slog.Int("removed", removed))
	}
}

func (s *Scheduler) publishPoolStats() {
	total, idle, acquired := s.pool.PoolStats()
	s.sink.SetPoolStats(total, idle, acquired)

	s.logger.Debug("pool stats published",
		slog.Int("total", int(total)),
		slog.Int("idle", int(idle)),
		slog.Int("acquired", int(acquired)),
	)
}
