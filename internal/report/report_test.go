package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"reportlens/internal/analytics"
	"reportlens/internal/gaexport"
	"reportlens/internal/report"
)

type staticResolver struct{}

func (staticResolver) Resolve(code string) (string, string) {
	return "Country " + code, "Region"
}

func fixtureEnvelope(t *testing.T) report.Envelope {
	t.Helper()
	data, err := os.ReadFile("../gaexport/testdata/export_it.csv")
	require.NoError(t, err)
	rec, err := gaexport.Parse(string(data))
	require.NoError(t, err)
	return report.Envelope{
		ExportedAt: time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
		Source:     "export_it.csv",
		Record:     rec,
		Summary:    analytics.Summarize(rec, analytics.WithCountryResolver(staticResolver{})),
	}
}

func TestWriteText(t *testing.T) {
	env := fixtureEnvelope(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, env.Record.Metadata, env.Summary))

	out := buf.String()
	assert.Contains(t, out, "ANALYTICS REPORT - PORTFOLIO GA4")
	assert.Contains(t, out, "Property: Portfolio GA4\n")
	assert.Contains(t, out, "Period: 2026-01-01 - 2026-01-07")
	assert.Contains(t, out, "Duration: 7 days")
	assert.Contains(t, out, "TRAFFIC SOURCES\n")
	assert.Contains(t, out, "Direct: 40 users (43.48%)")
	assert.Contains(t, out, "Top source: Direct")
	assert.Contains(t, out, "  Country IT: 80 users (69.57%)")
	assert.Contains(t, out, "  2. Progetti, portfolio e lavori (45 views)")
	assert.Contains(t, out, "Trend: growth")
	assert.Contains(t, out, "Days with engaged users: 5 of 7")
}

func TestWriteTextEmptySummary(t *testing.T) {
	var buf bytes.Buffer
	s := analytics.Summarize(nil, analytics.WithCountryResolver(staticResolver{}))
	require.NoError(t, report.WriteText(&buf, gaexport.Metadata{}, s))

	out := buf.String()
	assert.Contains(t, out, "ANALYTICS REPORT - N/A")
	assert.Contains(t, out, "Period: N/A - N/A")
	assert.Contains(t, out, "Top source: N/A")
	assert.Contains(t, out, "Trend: insufficient_data")
}

func TestWriteTextTruncatesLongTitles(t *testing.T) {
	title := strings.Repeat("è", 80)
	rec, err := gaexport.Parse("Titolo pagina,Visualizzazioni\n" + title + ",3\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, rec.Metadata, analytics.Summarize(rec, analytics.WithCountryResolver(staticResolver{}))))
	assert.Contains(t, buf.String(), "1. "+strings.Repeat("è", 70)+"... (3 views)")
}

func TestWriteJSON(t *testing.T) {
	env := fixtureEnvelope(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, env))

	var decoded struct {
		ExportedAt time.Time `json:"exported_at"`
		Source     string    `json:"source"`
		Record     struct {
			Metadata gaexport.Metadata       `json:"metadata"`
			Pages    gaexport.CategoryTotals `json:"pages"`
		} `json:"record"`
		Summary map[string]map[string]any `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "export_it.csv", decoded.Source)
	assert.Equal(t, "Portfolio GA4", decoded.Record.Metadata.Property)
	assert.Equal(t, 4, decoded.Record.Pages.Len())
	for _, section := range []string{"period", "users", "traffic_sources", "geography", "content", "engagement", "revenue", "activity", "rates"} {
		assert.Contains(t, decoded.Summary, section)
	}
	assert.Equal(t, "growth", decoded.Summary["users"]["growth_trend"])
	assert.Equal(t, 43.48, decoded.Summary["traffic_sources"]["source_percentages"].(map[string]any)["Direct"])

	// Source order survives serialization.
	raw := buf.String()
	assert.Less(t, strings.Index(raw, `"Organic Search"`), strings.Index(raw, `"Organic Social"`))
}

func TestWriteYAML(t *testing.T) {
	env := fixtureEnvelope(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteYAML(&buf, env))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "export_it.csv", decoded["source"])

	summary := decoded["summary"].(map[string]any)
	period := summary["period"].(map[string]any)
	assert.Equal(t, "2026-01-01", period["start"])
	assert.Equal(t, 7, period["duration_days"])
	assert.Equal(t, 7, period["calendar_days"])
}

func TestWriteDailyCSV(t *testing.T) {
	env := fixtureEnvelope(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteDailyCSV(&buf, env.Record))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"date", "day", "active_users", "new_users", "engagement_seconds", "revenue"}, rows[0])
	assert.Equal(t, []string{"2026-01-01", "0", "10", "8", "45.5", "0"}, rows[1])
	assert.Equal(t, []string{"2026-01-03", "2", "15", "10", "60", "12.5"}, rows[3])
}

func TestWriteDailyCSVWithoutStartDate(t *testing.T) {
	rec, err := gaexport.Parse("N° giorno,Utenti attivi\n0,1\n2,3\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteDailyCSV(&buf, rec))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "day", "active_users", "new_users", "engagement_seconds", "revenue"},
		{"", "0", "1", "0", "0", "0"},
		{"", "1", "0", "0", "0", "0"},
		{"", "2", "3", "0", "0", "0"},
	}, rows)
}

func TestWriteSummaryCSV(t *testing.T) {
	env := fixtureEnvelope(t)
	var buf bytes.Buffer
	require.NoError(t, report.WriteSummaryCSV(&buf, env.Summary))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "key", "value"}, rows[0])
	assert.Contains(t, rows, []string{"users", "returning_users", "30"})
	assert.Contains(t, rows, []string{"traffic_sources", "source_percentages.Referral", "5.43"})
	assert.Contains(t, rows, []string{"content", "pages.Progetti, portfolio e lavori", "45"})
	assert.Contains(t, rows, []string{"rates", "events_per_user", "4.67"})
}

func TestWriteAll(t *testing.T) {
	env := fixtureEnvelope(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := report.WriteAll(dir, report.BaseName("exports/Istantanea report.csv"), env)
	require.NoError(t, err)
	require.Len(t, paths, len(report.AllFormats))
	assert.Equal(t, filepath.Join(dir, "istantanea_report.txt"), paths[0])
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = report.WriteAll(dir, "x", report.Envelope{})
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "istantanea_report", report.BaseName("/tmp/Istantanea report.csv"))
	assert.Equal(t, "ga-2026_01", report.BaseName("GA-2026_01.CSV"))
	assert.Equal(t, "report", report.BaseName(""))
}
