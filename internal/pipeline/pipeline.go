// Package pipeline ties parsing, aggregation and archiving together for the
// CLI, the HTTP API and the background jobs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/karloscodes/cartridge"

	"reportlens/internal/analytics"
	"reportlens/internal/config"
	"reportlens/internal/gaexport"
	"reportlens/internal/pkg/async"
	"reportlens/internal/report"
	"reportlens/internal/snapshots"
	"reportlens/internal/timeframe"
)

// Analysis is one parsed and summarized export.
type Analysis struct {
	Source     string
	Raw        string
	AnalyzedAt time.Time
	Record     *gaexport.Record
	Summary    *analytics.Summary
}

// Envelope returns the document the JSON and YAML renderers write.
func (a *Analysis) Envelope(includeRecord bool) report.Envelope {
	env := report.Envelope{
		ExportedAt: a.AnalyzedAt,
		Source:     a.Source,
		Summary:    a.Summary,
	}
	if includeRecord {
		env.Record = a.Record
	}
	return env
}

// Comparison pairs an export with the previous archived period of the same
// property. Previous and Metrics are nil when there is none.
type Comparison struct {
	Current  *analytics.Summary           `json:"current"`
	Previous *snapshots.Snapshot          `json:"previous,omitempty"`
	Metrics  *analytics.ComparisonMetrics `json:"metrics,omitempty"`
}

type Option func(*Analyzer)

// WithCountryResolver replaces the country lookup used by summaries.
func WithCountryResolver(r analytics.CountryResolver) Option {
	return func(a *Analyzer) { a.resolver = r }
}

// WithTimeProvider replaces the clock stamping analyses.
func WithTimeProvider(tp timeframe.TimeProvider) Option {
	return func(a *Analyzer) {
		if tp != nil {
			a.clock = tp
		}
	}
}

// Analyzer runs the parser and the aggregator with application settings.
type Analyzer struct {
	parser   *gaexport.Parser
	logger   *slog.Logger
	topPages int
	workers  int
	resolver analytics.CountryResolver
	clock    timeframe.TimeProvider
}

// NewAnalyzer builds an Analyzer from configuration.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	parser, err := gaexport.New(
		gaexport.WithLabels(gaexport.LabelsForLocale(cfg.Locale)),
		gaexport.WithLogger(logger),
		gaexport.WithMaxLabelLen(gaexport.SectionGeography, cfg.GeoLabelMaxLen),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build export parser: %w", err)
	}

	a := &Analyzer{
		parser:   parser,
		logger:   logger,
		topPages: cfg.TopPagesLimit,
		workers:  cfg.GetWorkers(),
		clock:    &timeframe.DefaultTimeProvider{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AnalyzeText parses and summarizes one export.
func (a *Analyzer) AnalyzeText(source, text string) (*Analysis, error) {
	rec, err := a.parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	opts := []analytics.Option{analytics.WithTopPages(a.topPages), analytics.WithLogger(a.logger)}
	if a.resolver != nil {
		opts = append(opts, analytics.WithCountryResolver(a.resolver))
	}

	analysis := &Analysis{
		Source:     source,
		Raw:        text,
		AnalyzedAt: a.clock.Now(time.UTC),
		Record:     rec,
		Summary:    analytics.Summarize(rec, opts...),
	}

	a.logger.Info("Export analyzed",
		slog.String("source", source),
		slog.String("property", rec.Metadata.Property),
		slog.Int("blocks", rec.Diagnostics.Blocks),
		slog.Int("skipped_rows", rec.Diagnostics.SkippedRows()))
	return analysis, nil
}

// AnalyzeFile reads and analyzes the export at path.
func (a *Analyzer) AnalyzeFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return a.AnalyzeText(filepath.Base(path), string(data))
}

// AnalyzeFiles analyzes every path concurrently; results keep path order.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) []async.Result[*Analysis] {
	tasks := make([]async.Task[*Analysis], len(paths))
	for i, path := range paths {
		tasks[i] = async.Task[*Analysis]{
			Name: path,
			Execute: func(context.Context) (*Analysis, error) {
				return a.AnalyzeFile(path)
			},
		}
	}
	return async.NewPool[*Analysis](a.workers).Execute(ctx, tasks)
}

// Import archives an analysis. A duplicate export returns the archived
// snapshot along with a *snapshots.DuplicateSnapshotError.
func (a *Analyzer) Import(dbManager cartridge.DBManager, analysis *Analysis) (*snapshots.Snapshot, error) {
	snap, err := snapshots.New(analysis.Source, analysis.Raw, analysis.Record, analysis.Summary)
	if err != nil {
		return nil, err
	}
	return snapshots.Save(a.logger, dbManager.GetConnection(), snap)
}

// Compare looks up the archived period preceding the analysis.
func (a *Analyzer) Compare(dbManager cartridge.DBManager, analysis *Analysis) (*Comparison, error) {
	return compare(dbManager, analysis.Summary, analysis.Record.Metadata.Property, analysis.Record.Metadata.StartDate)
}

// CompareSnapshot compares an archived snapshot with its predecessor.
func CompareSnapshot(dbManager cartridge.DBManager, snap *snapshots.Snapshot) (*Comparison, error) {
	summary, err := snap.DecodeSummary()
	if err != nil {
		return nil, err
	}
	return compare(dbManager, summary, snap.Property, snap.StartDate)
}

func compare(dbManager cartridge.DBManager, current *analytics.Summary, property, startDate string) (*Comparison, error) {
	result := &Comparison{Current: current}

	prev, err := snapshots.Previous(dbManager.GetConnection(), property, startDate)
	if errors.Is(err, snapshots.ErrSnapshotNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up previous period: %w", err)
	}

	prevSummary, err := prev.DecodeSummary()
	if err != nil {
		return nil, err
	}
	prev.Record = nil
	result.Previous = prev
	result.Metrics = analytics.Compare(current, prevSummary)
	return result, nil
}
