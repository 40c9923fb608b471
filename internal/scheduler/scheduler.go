// Package scheduler runs the insight digest for a watchlist on a cron
// schedule and rotates the run log.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sector-insights/internal/logger"
	"sector-insights/internal/types"
)

// Runner produces the insight report for a symbol
type Runner interface {
	Run(ctx context.Context, symbol string) (*types.RunReport, error)
}

// Compressor archives old run log files
type Compressor interface {
	CompressOlder(retentionDays int) (int, error)
}

// Config holds the schedule settings
type Config struct {
	Spec          string
	Watchlist     []string
	RetentionDays int
	Location      *time.Location
}

// Scheduler owns the cron instance and its jobs
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	compressor Compressor
	config     Config

	mu      sync.Mutex
	running bool
	ctx     context.Context
}

// NewScheduler creates a scheduler. compressor may be nil.
func NewScheduler(runner Runner, compressor Compressor, config Config) *Scheduler {
	loc := config.Location
	if loc == nil {
		loc = time.FixedZone("WIB", 7*3600)
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		runner:     runner,
		compressor: compressor,
		config:     config,
		ctx:        context.Background(),
	}
}

// Start registers the jobs and starts the cron goroutine. Runs started by
// the schedule use ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(s.config.Spec, func() { s.RunDigest(s.ctx) }); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", s.config.Spec, err)
	}
	if s.compressor != nil && s.config.RetentionDays > 0 {
		if _, err := s.cron.AddFunc("@daily", s.rotateLogs); err != nil {
			return err
		}
	}
	s.cron.Start()
	logger.Info(ctx, "Digest scheduler started", "spec", s.config.Spec, "watchlist", s.config.Watchlist)
	return nil
}

// Stop stops the scheduler and waits for a running digest to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunDigest runs the dashboard for every watchlist symbol in order. A digest
// still in progress when the next tick fires causes that tick to be skipped.
func (s *Scheduler) RunDigest(ctx context.Context) []*types.RunReport {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn(ctx, "Previous digest still running, skipping")
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	op := logger.StartOperation(ctx, "scheduler.RunDigest", "symbols", len(s.config.Watchlist))
	ctx = op.GetContext()

	var reports []*types.RunReport
	failed := 0
	for _, symbol := range s.config.Watchlist {
		if ctx.Err() != nil {
			break
		}
		report, err := s.runner.Run(ctx, symbol)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			failed++
			logger.ErrorWithErr(ctx, "Digest run failed", err, "symbol", symbol)
			continue
		}
		logger.Info(ctx, "Digest run completed", "symbol", symbol, "failed_panels", report.FailedPanels())
	}
	op.End("failed_runs", failed)
	return reports
}

func (s *Scheduler) rotateLogs() {
	n, err := s.compressor.CompressOlder(s.config.RetentionDays)
	if err != nil {
		logger.ErrorWithErr(s.ctx, "Run log rotation failed", err)
		return
	}
	if n > 0 {
		logger.Info(s.ctx, "Compressed old run logs", "files", n)
	}
}
