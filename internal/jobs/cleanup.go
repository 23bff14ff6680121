package jobs

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"reportlens/internal/snapshots"
)

const cleanupBatchSize = 1000

// CleanupJob removes snapshots past the retention period
type CleanupJob struct {
	dbManager     cartridge.DBManager
	logger        *slog.Logger
	retentionDays int
}

func NewCleanupJob(dbManager cartridge.DBManager, logger *slog.Logger, retentionDays int) *CleanupJob {
	return &CleanupJob{
		dbManager:     dbManager,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Run deletes snapshots archived more than retentionDays ago. A retention of
// zero keeps everything.
func (j *CleanupJob) Run() error {
	if j.retentionDays <= 0 {
		j.logger.Debug("Snapshot retention disabled")
		return nil
	}

	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	j.logger.Info("Starting cleanup of old snapshots",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	totalDeleted := int64(0)
	for {
		deleted, err := snapshots.DeleteOlderThan(j.logger, db, cutoffDate, cleanupBatchSize)
		if err != nil {
			j.logger.Error("Failed to delete old snapshots",
				slog.Any("error", err),
				slog.Int64("deleted_so_far", totalDeleted))
			return err
		}

		totalDeleted += deleted

		if deleted < cleanupBatchSize {
			break
		}

		// Small delay between batches to prevent database lock contention
		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Cleaned up old snapshots",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", j.retentionDays))

	return nil
}
