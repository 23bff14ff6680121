// Package gaexport parses Google Analytics "report snapshot" CSV exports.
//
// An export is a sequence of blocks separated by blank lines. Each block has
// optional '#' title lines, a column header row and data rows. Blocks are
// classified by their head (title plus header) against an ordered list of
// predicates; unrecognized blocks and malformed rows are skipped and counted
// in Record.Diagnostics instead of failing the parse.
package gaexport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var (
	// ErrBinaryInput is returned when the input is not text at all.
	ErrBinaryInput = errors.New("gaexport: input is not text")
	// ErrNilReader is returned by ParseReader when called with a nil reader.
	ErrNilReader = errors.New("gaexport: nil reader")
)

// DefaultGeographyLabelMaxLen keeps geography rows to country codes.
const DefaultGeographyLabelMaxLen = 3

// Parser turns export text into Records. A Parser holds no per-parse state
// and may be shared between goroutines.
type Parser struct {
	labels      Labels
	logger      *slog.Logger
	maxLabelLen map[SectionKind]int
	meta        *metadataPatterns
}

// Option configures a Parser.
type Option func(*Parser)

// WithLabels selects the label set used for classification and metadata.
func WithLabels(l Labels) Option {
	return func(p *Parser) { p.labels = l }
}

// WithLogger injects a logger for parse diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxLabelLen bounds label length for one category section; n <= 0
// removes the bound.
func WithMaxLabelLen(kind SectionKind, n int) Option {
	return func(p *Parser) { p.maxLabelLen[kind] = n }
}

// New builds a Parser. Italian labels, a discard logger and a three
// character bound on geography labels are the defaults.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		labels: ItalianLabels,
		logger: slog.New(slog.DiscardHandler),
		maxLabelLen: map[SectionKind]int{
			SectionGeography: DefaultGeographyLabelMaxLen,
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	meta, err := compileMetadataPatterns(p.labels)
	if err != nil {
		return nil, err
	}
	p.meta = meta
	return p, nil
}

// Parse is a convenience wrapper around New and Parser.Parse.
func Parse(text string, opts ...Option) (*Record, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// ParseReader reads r fully and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Record, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gaexport: read export: %w", err)
	}
	return p.Parse(string(data))
}

// Parse builds a Record from export text. Only ErrBinaryInput is returned as
// an error; every data-quality problem degrades to empty series.
func (p *Parser) Parse(text string) (*Record, error) {
	normalized, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	rec := NewRecord()
	rec.Metadata = p.meta.extract(normalized)

	for _, b := range splitBlocks(normalized, p.labels) {
		rec.Diagnostics.Blocks++
		kind, ok := classify(b, p.labels)
		if !ok {
			rec.Diagnostics.UnrecognizedBlocks++
			continue
		}
		p.parseSection(rec, kind, b)
	}

	p.logger.Debug("Parsed analytics export",
		slog.String("property", rec.Metadata.Property),
		slog.Int("blocks", rec.Diagnostics.Blocks),
		slog.Int("unrecognized_blocks", rec.Diagnostics.UnrecognizedBlocks),
		slog.Int("empty_sections", rec.Diagnostics.EmptySections),
		slog.Int("skipped_rows", rec.Diagnostics.SkippedRows()))
	return rec, nil
}

func (p *Parser) rulesFor(kind SectionKind) rowRules {
	return rowRules{
		splitLast:   kind == SectionPages,
		maxLabelLen: p.maxLabelLen[kind],
	}
}

func (p *Parser) parseLine(kind SectionKind, line string) rowResult {
	switch kind {
	case SectionActiveUsers, SectionNewUsers, SectionEngagement, SectionRevenue:
		return parseDayRow(line)
	case SectionUserTrends:
		return parseTrendRow(line)
	default:
		return parseCategoryRow(line, p.rulesFor(kind))
	}
}

// parseSection folds the rows of one block into a series. The header row is
// tried as data too, for blocks recognized by title whose first line already
// holds values; when it does not parse it is simply the header. A block that
// yields rows replaces an earlier block of the same kind; an empty one never
// does.
func (p *Parser) parseSection(rec *Record, kind SectionKind, b block) {
	stats := rec.Diagnostics.Sections[kind]
	stats.Blocks++

	var (
		days     DaySeries
		cats     CategoryTotals
		trends   []TrendPoint
		accepted int
	)

	lines := append([]string{b.header}, b.body...)
	for i, line := range lines {
		res := p.parseLine(kind, line)
		if !res.ok() {
			if i == 0 {
				continue
			}
			if stats.Skipped == nil {
				stats.Skipped = make(map[SkipReason]int)
			}
			stats.Skipped[res.skip]++
			p.logger.Debug("Skipped export row",
				slog.String("section", string(kind)),
				slog.String("reason", string(res.skip)),
				slog.String("line", line))
			continue
		}

		accepted++
		switch kind {
		case SectionActiveUsers, SectionNewUsers, SectionEngagement, SectionRevenue:
			days = append(days, res.day)
		case SectionUserTrends:
			trends = append(trends, res.trend)
		default:
			cats.Set(res.cat.Label, res.cat.Value)
		}
	}

	stats.Rows += accepted
	rec.Diagnostics.Sections[kind] = stats

	if accepted == 0 {
		rec.Diagnostics.EmptySections++
		p.logger.Debug("Export section produced no rows", slog.String("section", string(kind)))
		return
	}

	switch kind {
	case SectionActiveUsers:
		rec.DailyActiveUsers = days
	case SectionNewUsers:
		rec.DailyNewUsers = days
	case SectionEngagement:
		rec.EngagementDuration = days
	case SectionRevenue:
		rec.Revenue = days
	case SectionUserTrends:
		rec.UserTrends = trends
	case SectionTrafficNew:
		rec.TrafficSourcesNew = cats
	case SectionTrafficSessions:
		rec.TrafficSourcesSession = cats
	case SectionGeography:
		rec.Geography = cats
	case SectionPages:
		rec.Pages = cats
	case SectionEvents:
		rec.Events = cats
	}
}
