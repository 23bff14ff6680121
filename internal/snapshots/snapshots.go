// Package snapshots archives parsed exports together with their summaries so
// that periods of the same property can be listed and compared later.
package snapshots

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"

	"reportlens/internal/analytics"
	"reportlens/internal/gaexport"
	"reportlens/internal/models"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DuplicateSnapshotError is returned by Save when an export with the same
// fingerprint is already archived.
type DuplicateSnapshotError struct {
	Fingerprint string
	Existing    *Snapshot
}

func (e *DuplicateSnapshotError) Error() string {
	return fmt.Sprintf("export already archived as snapshot %s", e.Existing.PublicID)
}

// Snapshot is one archived export.
type Snapshot struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"-"`
	PublicID    string      `gorm:"uniqueIndex;size:36;not null" json:"id"`
	Fingerprint string      `gorm:"uniqueIndex;size:64;not null" json:"fingerprint"`
	Account     string      `gorm:"size:255" json:"account"`
	Property    string      `gorm:"size:255;index:idx_snapshots_property_start" json:"property"`
	StartDate   string      `gorm:"size:10;index:idx_snapshots_property_start" json:"start_date"`
	EndDate     string      `gorm:"size:10" json:"end_date"`
	Source      string      `gorm:"size:255" json:"source"`
	SkippedRows int         `gorm:"not null;default:0" json:"skipped_rows"`
	Record      models.JSON `json:"record,omitempty"`
	Summary     models.JSON `gorm:"not null" json:"summary"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Snapshot) TableName() string {
	return "snapshots"
}

// Fingerprint returns the hex blake2b-256 digest of a raw export.
func Fingerprint(raw string) string {
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// New builds an unsaved snapshot of a parsed export.
func New(source, raw string, rec *gaexport.Record, summary *analytics.Summary) (*Snapshot, error) {
	if rec == nil || summary == nil {
		return nil, fmt.Errorf("snapshot of %q needs a record and a summary", source)
	}

	recordJSON, err := models.NewJSON(rec)
	if err != nil {
		return nil, err
	}
	summaryJSON, err := models.NewJSON(summary)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Fingerprint: Fingerprint(raw),
		Account:     rec.Metadata.Account,
		Property:    rec.Metadata.Property,
		StartDate:   rec.Metadata.StartDate,
		EndDate:     rec.Metadata.EndDate,
		Source:      source,
		SkippedRows: rec.Diagnostics.SkippedRows(),
		Record:      recordJSON,
		Summary:     summaryJSON,
	}, nil
}

// DecodeSummary returns the archived summary.
func (s *Snapshot) DecodeSummary() (*analytics.Summary, error) {
	var summary analytics.Summary
	if err := s.Summary.Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary of snapshot %s: %w", s.PublicID, err)
	}
	return &summary, nil
}

// DecodeRecord returns the archived parse result.
func (s *Snapshot) DecodeRecord() (*gaexport.Record, error) {
	rec := gaexport.NewRecord()
	if err := s.Record.Decode(rec); err != nil {
		return nil, fmt.Errorf("failed to decode record of snapshot %s: %w", s.PublicID, err)
	}
	return rec, nil
}

func findByFingerprint(db *gorm.DB, fingerprint string) (*Snapshot, error) {
	var existing Snapshot
	err := db.Where("fingerprint = ?", fingerprint).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// Save archives snap. When the same export was archived before, the stored
// snapshot is returned together with a *DuplicateSnapshotError.
func Save(logger *slog.Logger, db *gorm.DB, snap *Snapshot) (*Snapshot, error) {
	if snap.Fingerprint == "" {
		return nil, fmt.Errorf("snapshot fingerprint is required")
	}

	existing, err := findByFingerprint(db, snap.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot fingerprint: %w", err)
	}
	if existing != nil {
		return existing, &DuplicateSnapshotError{Fingerprint: snap.Fingerprint, Existing: existing}
	}

	if snap.PublicID == "" {
		snap.PublicID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	err = models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(snap).Error
	})
	if err != nil {
		// A concurrent import of the same file loses on the unique index.
		if existing, lookupErr := findByFingerprint(db, snap.Fingerprint); lookupErr == nil && existing != nil {
			return existing, &DuplicateSnapshotError{Fingerprint: snap.Fingerprint, Existing: existing}
		}
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	logger.Info("Snapshot saved",
		slog.String("id", snap.PublicID),
		slog.String("property", snap.Property),
		slog.String("start_date", snap.StartDate),
		slog.String("source", snap.Source))
	return snap, nil
}

// Get returns the snapshot with the given public id.
func Get(db *gorm.DB, publicID string) (*Snapshot, error) {
	var snap Snapshot
	err := db.Where("public_id = ?", publicID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns snapshots newest period first, without their records. An
// empty property lists every property.
func List(db *gorm.DB, property string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := db.Omit("record").Order("start_date DESC").Order("id DESC").Limit(limit)
	if property != "" {
		query = query.Where("property = ?", property)
	}

	var list []Snapshot
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Previous returns the latest snapshot of property whose period starts before
// startDate.
func Previous(db *gorm.DB, property, startDate string) (*Snapshot, error) {
	if startDate == "" {
		return nil, ErrSnapshotNotFound
	}

	var snap Snapshot
	err := db.Where("property = ? AND start_date <> '' AND start_date < ?", property, startDate).
		Order("start_date DESC").
		Order("id DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// DeleteOlderThan removes up to batchSize snapshots archived before cutoff and
// returns how many were deleted.
func DeleteOlderThan(logger *slog.Logger, db *gorm.DB, cutoff time.Time, batchSize int) (int64, error) {
	var deleted int64
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&Snapshot{}).
			Where("created_at < ?", cutoff.UTC()).
			Order("id").
			Limit(batchSize).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			deleted = 0
			return nil
		}
		result := tx.Where("id IN ?", ids).Delete(&Snapshot{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}
