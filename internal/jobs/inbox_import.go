package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"

	"reportlens/internal/pipeline"
	"reportlens/internal/snapshots"
)

// Subdirectories of the inbox that receive handled exports.
const (
	ProcessedDirName = "processed"
	FailedDirName    = "failed"
)

// InboxStats counts the outcome of one inbox pass.
type InboxStats struct {
	Imported   int
	Duplicates int
	Failed     int
}

// InboxImportJob archives exports dropped into the inbox directory
type InboxImportJob struct {
	dbManager cartridge.DBManager
	analyzer  *pipeline.Analyzer
	logger    *slog.Logger
	inboxDir  string
}

func NewInboxImportJob(dbManager cartridge.DBManager, analyzer *pipeline.Analyzer, logger *slog.Logger, inboxDir string) *InboxImportJob {
	return &InboxImportJob{
		dbManager: dbManager,
		analyzer:  analyzer,
		logger:    logger,
		inboxDir:  inboxDir,
	}
}

// Run imports every pending export once.
func (j *InboxImportJob) Run() error {
	_, err := j.Process()
	return err
}

// Process imports each *.csv file of the inbox and moves it to processed/ or
// failed/. Duplicates count as processed.
func (j *InboxImportJob) Process() (InboxStats, error) {
	var stats InboxStats

	pending, err := j.pendingFiles()
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		j.logger.Debug("No exports waiting in inbox", slog.String("inbox", j.inboxDir))
		return stats, nil
	}

	j.logger.Info("Found exports in inbox", slog.Int("count", len(pending)))

	for _, path := range pending {
		target := ProcessedDirName
		switch err := j.importFile(path); {
		case err == nil:
			stats.Imported++
		case isDuplicate(err):
			stats.Duplicates++
			j.logger.Info("Export already archived", slog.String("file", path))
		default:
			stats.Failed++
			target = FailedDirName
			j.logger.Error("Failed to import export", slog.String("file", path), slog.Any("error", err))
		}

		if err := j.move(path, target); err != nil {
			return stats, err
		}
	}

	j.logger.Info("Inbox import finished",
		slog.Int("imported", stats.Imported),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

func (j *InboxImportJob) pendingFiles() ([]string, error) {
	entries, err := os.ReadDir(j.inboxDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(j.inboxDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (j *InboxImportJob) importFile(path string) error {
	analysis, err := j.analyzer.AnalyzeFile(path)
	if err != nil {
		return err
	}
	_, err = j.analyzer.Import(j.dbManager, analysis)
	return err
}

func isDuplicate(err error) bool {
	var dup *snapshots.DuplicateSnapshotError
	return errors.As(err, &dup)
}

func (j *InboxImportJob) move(path, subdir string) error {
	dir := filepath.Join(j.inboxDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		dest = filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(path)))
	}
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}
