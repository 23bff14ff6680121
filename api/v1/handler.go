package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"reportlens/internal/gaexport"
	"reportlens/internal/pipeline"
	"reportlens/internal/report"
	"reportlens/internal/snapshots"
	"reportlens/internal/timeframe"
)

const (
	defaultSource     = "upload.csv"
	errInvalidRequest = "Invalid request"
)

// Handler serves the v1 JSON API.
type Handler struct {
	dbManager cartridge.DBManager
	analyzer  *pipeline.Analyzer
	logger    *slog.Logger
}

func NewHandler(dbManager cartridge.DBManager, analyzer *pipeline.Analyzer, logger *slog.Logger) *Handler {
	return &Handler{
		dbManager: dbManager,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// SummaryResponse is the body of POST /summaries.
type SummaryResponse struct {
	report.Envelope
	Daily []timeframe.DateStat `json:"daily,omitempty"`
}

// SnapshotResponse is the body of GET /snapshots/:id.
type SnapshotResponse struct {
	Snapshot   *snapshots.Snapshot  `json:"snapshot"`
	Comparison *pipeline.Comparison `json:"comparison"`
}

func errorJSON(c *fiber.Ctx, status int, msg, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}

// Health reports whether the archive database answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"

	db := h.dbManager.GetConnection()
	if db == nil {
		dbStatus = "error"
		h.logger.Error("Database connection unavailable")
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			h.logger.Error("Database connection error", slog.Any("error", err))
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "error"
			h.logger.Error("Database ping failed", slog.Any("error", err))
		}
	}

	health := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		DBStatus:  dbStatus,
	}
	if dbStatus != "ok" {
		health.Status = "degraded"
	}

	return c.JSON(health)
}

// analyzeBody parses the raw request body as an export.
func (h *Handler) analyzeBody(c *fiber.Ctx) (*pipeline.Analysis, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "Request body must contain an export")
	}

	analysis, err := h.analyzer.AnalyzeText(c.Query("source", defaultSource), string(body))
	if errors.Is(err, gaexport.ErrBinaryInput) {
		return nil, fiber.NewError(http.StatusUnprocessableEntity, "Export must be text")
	}
	if err != nil {
		h.logger.Error("Failed to analyze export", slog.Any("error", err))
		return nil, fiber.NewError(http.StatusInternalServerError, "Failed to analyze export")
	}
	return analysis, nil
}

func handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "INVALID_EXPORT"
		if fe.Code >= http.StatusInternalServerError {
			code = "ANALYSIS_ERROR"
		}
		return errorJSON(c, fe.Code, fe.Message, code)
	}
	return errorJSON(c, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}

func includes(c *fiber.Ctx, part string) bool {
	for _, p := range strings.Split(c.Query("include"), ",") {
		if strings.TrimSpace(p) == part {
			return true
		}
	}
	return false
}

// CreateSummary analyzes an export without archiving it.
// Query: include=record,daily
func (h *Handler) CreateSummary(c *fiber.Ctx) error {
	analysis, err := h.analyzeBody(c)
	if err != nil {
		return handleError(c, err)
	}

	resp := SummaryResponse{Envelope: analysis.Envelope(includes(c, "record"))}
	if includes(c, "daily") {
		meta := analysis.Record.Metadata
		if period, err := timeframe.NewPeriod(meta.StartDate, meta.EndDate); err == nil {
			resp.Daily = period.BuildTimeSeriesPoints(analysis.Record.DailyActiveUsers)
		}
	}
	return c.JSON(resp)
}

// CreateSnapshot analyzes and archives an export.
func (h *Handler) CreateSnapshot(c *fiber.Ctx) error {
	analysis, err := h.analyzeBody(c)
	if err != nil {
		return handleError(c, err)
	}

	snap, err := h.analyzer.Import(h.dbManager, analysis)
	var dup *snapshots.DuplicateSnapshotError
	if errors.As(err, &dup) {
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"error": "Export already archived",
			"code":  "DUPLICATE_SNAPSHOT",
			"id":    dup.Existing.PublicID,
		})
	}
	if err != nil {
		h.logger.Error("Failed to archive export", slog.Any("error", err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to archive export", "ARCHIVE_ERROR")
	}

	snap.Record = nil
	return c.Status(http.StatusCreated).JSON(snap)
}

// ListSnapshots lists archived snapshots.
// Query: property, limit
func (h *Handler) ListSnapshots(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", snapshots.DefaultListLimit)
	if limit <= 0 || limit > 500 {
		return errorJSON(c, http.StatusBadRequest, errInvalidRequest, "INVALID_LIMIT")
	}

	list, err := snapshots.List(h.dbManager.GetConnection(), c.Query("property"), limit)
	if err != nil {
		h.logger.Error("Failed to list snapshots", slog.Any("error", err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to list snapshots", "ARCHIVE_ERROR")
	}
	return c.JSON(fiber.Map{"snapshots": list})
}

// GetSnapshot returns one snapshot and its comparison with the previous
// period of the same property.
func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	snap, err := snapshots.Get(h.dbManager.GetConnection(), c.Params("id"))
	if errors.Is(err, snapshots.ErrSnapshotNotFound) {
		return errorJSON(c, http.StatusNotFound, "Snapshot not found", "NOT_FOUND")
	}
	if err != nil {
		h.logger.Error("Failed to load snapshot", slog.Any("error", err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to load snapshot", "ARCHIVE_ERROR")
	}

	comparison, err := pipeline.CompareSnapshot(h.dbManager, snap)
	if err != nil {
		h.logger.Error("Failed to compare snapshot", slog.Any("error", err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to compare snapshot", "ARCHIVE_ERROR")
	}

	if !includes(c, "record") {
		snap.Record = nil
	}
	return c.JSON(SnapshotResponse{Snapshot: snap, Comparison: comparison})
}
