package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"reportlens/internal/config"
	"reportlens/internal/pipeline"
)

const cleanupInterval = 24 * time.Hour

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	interval  time.Duration

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	inboxJob   *InboxImportJob
	cleanupJob *CleanupJob

	inboxTicker   *time.Ticker
	cleanupTicker *time.Ticker
	wg            sync.WaitGroup
}

func NewScheduler(dbManager cartridge.DBManager, analyzer *pipeline.Analyzer, cfg *config.Config, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := time.Duration(cfg.JobIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &Scheduler{
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		enabled:    true,
		interval:   interval,
		inboxJob:   NewInboxImportJob(dbManager, analyzer, logger, cfg.InboxDirectory),
		cleanupJob: NewCleanupJob(dbManager, logger, cfg.SnapshotRetentionDays),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	s.inboxTicker = time.NewTicker(s.interval)
	s.cleanupTicker = time.NewTicker(cleanupInterval)
	s.runEvery("inbox_import", s.inboxTicker, s.inboxJob.Run)
	s.runEvery("snapshot_cleanup", s.cleanupTicker, s.cleanupJob.Run)

	s.logger.Info("Background jobs started", slog.Duration("inbox_interval", s.interval))
	return nil
}

// runEvery executes job once immediately and then on every tick.
func (s *Scheduler) runEvery(name string, ticker *time.Ticker, job func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJobSafely(name, job)

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(name, job)
			case <-s.ctx.Done():
				s.logger.Info("Background job stopped", slog.String("job", name))
				return
			}
		}
	}()
}

// Stop halts all background jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.inboxTicker != nil {
		s.inboxTicker.Stop()
	}
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}

	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// ImportInbox triggers one inbox pass outside the ticker.
func (s *Scheduler) ImportInbox() (InboxStats, error) {
	if !s.enabled {
		return InboxStats{}, nil
	}
	return s.inboxJob.Process()
}
