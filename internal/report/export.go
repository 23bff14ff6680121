// Package report renders parsed exports and their summaries as text, JSON,
// YAML and CSV.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"reportlens/internal/analytics"
	"reportlens/internal/gaexport"
)

// Envelope is the document written by the JSON and YAML renderers.
type Envelope struct {
	ExportedAt time.Time          `json:"exported_at" yaml:"exported_at"`
	Source     string             `json:"source" yaml:"source"`
	Record     *gaexport.Record   `json:"record,omitempty" yaml:"record,omitempty"`
	Summary    *analytics.Summary `json:"summary" yaml:"summary"`
}

// WriteJSON writes the envelope as indented JSON.
func WriteJSON(w io.Writer, env Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteYAML writes the envelope as YAML.
func WriteYAML(w io.Writer, env Envelope) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode report YAML: %w", err)
	}
	return enc.Close()
}

// Format names one output file kind.
type Format string

const (
	FormatText       Format = "txt"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatDailyCSV   Format = "daily.csv"
	FormatSummaryCSV Format = "summary.csv"
)

// AllFormats lists every format WriteAll produces, in write order.
var AllFormats = []Format{FormatText, FormatJSON, FormatYAML, FormatDailyCSV, FormatSummaryCSV}

// BaseName derives an output file stem from a source path:
// "exports/Istantanea report.csv" becomes "istantanea_report".
func BaseName(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "report"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// WriteAll writes every format for one envelope into dir and returns the
// paths it created.
func WriteAll(dir, base string, env Envelope) ([]string, error) {
	if env.Record == nil || env.Summary == nil {
		return nil, fmt.Errorf("report for %q is missing its record or summary", env.Source)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, format := range AllFormats {
		path := filepath.Join(dir, base+"."+string(format))
		if err := writeFile(path, format, env); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, format Format, env Envelope) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch format {
	case FormatText:
		return WriteText(f, env.Record.Metadata, env.Summary)
	case FormatJSON:
		return WriteJSON(f, env)
	case FormatYAML:
		return WriteYAML(f, env)
	case FormatDailyCSV:
		return WriteDailyCSV(f, env.Record)
	case FormatSummaryCSV:
		return WriteSummaryCSV(f, env.Summary)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
