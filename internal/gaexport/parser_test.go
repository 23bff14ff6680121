package gaexport_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal/gaexport"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/export_it.csv")
	require.NoError(t, err)
	return string(data)
}

func TestParseFixture(t *testing.T) {
	rec, err := gaexport.Parse(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, gaexport.Metadata{
		Account:   "Federico Calo",
		Property:  "Portfolio GA4",
		StartDate: "2026-01-01",
		EndDate:   "2026-01-07",
	}, rec.Metadata)

	assert.Equal(t, []float64{10, 20, 15, 12, 18, 25, 22}, rec.DailyActiveUsers.Values())
	assert.Equal(t, []float64{8, 15, 10, 9, 14, 20, 16}, rec.DailyNewUsers.Values())
	assert.Equal(t, []float64{45.5, 0, 60, 30.5, 0, 90, 40}, rec.EngagementDuration.Values())
	assert.Equal(t, []float64{0, 0, 12.5, 0, 0, 7.5, 0}, rec.Revenue.Values())

	assert.Equal(t, []string{"Direct", "Organic Search", "Organic Social", "Referral"}, rec.TrafficSourcesNew.Labels())
	assert.Equal(t, int64(92), gaexport.Sum(rec.TrafficSourcesNew))
	assert.Equal(t, int64(131), gaexport.Sum(rec.TrafficSourcesSession))

	assert.Equal(t, []string{"IT", "US", "DE", "CH"}, rec.Geography.Labels())

	views, ok := rec.Pages.Get("Progetti, portfolio e lavori")
	require.True(t, ok)
	assert.Equal(t, int64(45), views)
	views, ok = rec.Pages.Get("Blog: Go, Python e dati")
	require.True(t, ok)
	assert.Equal(t, int64(12), views)
	assert.Equal(t, 4, rec.Pages.Len())

	assert.Equal(t, int64(570), gaexport.Sum(rec.Events))

	require.Len(t, rec.UserTrends, 7)
	assert.Equal(t, gaexport.TrendPoint{Day: 6, Users30d: 100, Users7d: 100, Users1d: 22}, rec.UserTrends[6])

	assert.Equal(t, 11, rec.Diagnostics.Blocks)
	assert.Equal(t, 1, rec.Diagnostics.UnrecognizedBlocks)
	assert.Equal(t, 0, rec.Diagnostics.EmptySections)
	assert.Equal(t, 1, rec.Diagnostics.SkippedRows())
	assert.Equal(t, 1, rec.Diagnostics.Sections[gaexport.SectionGeography].Skipped[gaexport.SkipLabelTooLong])
}

func TestParseIsIdempotent(t *testing.T) {
	text := loadFixture(t)
	p, err := gaexport.New()
	require.NoError(t, err)

	first, err := p.Parse(text)
	require.NoError(t, err)
	second, err := p.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseEndToEndActiveUsers(t *testing.T) {
	text := "# Data di inizio: 20260101\n\nN° giorno,Utenti attivi\n0,10\n1,20\n2,15\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "2026-01-01", rec.Metadata.StartDate)
	assert.Equal(t, gaexport.DaySeries{{Day: 0, Value: 10}, {Day: 1, Value: 20}, {Day: 2, Value: 15}}, rec.DailyActiveUsers)
}

func TestParseEmptyAndUnrecognizedInput(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: "\n\n   \n"},
		{name: "prose", text: "hello world\nthis is not an export\n\nanother block"},
		{name: "replacement characters", text: "\uFFFD\uFFFD,\uFFFD\n\n\uFFFD"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := gaexport.Parse(tc.text)
			require.NoError(t, err)
			assert.True(t, rec.IsEmpty())
			assert.NotNil(t, rec.DailyActiveUsers)
			assert.NotNil(t, rec.UserTrends)
			assert.Equal(t, 0, rec.TrafficSourcesNew.Len())
		})
	}
}

func TestParseBlockWithoutValidRows(t *testing.T) {
	text := "N° giorno,Utenti attivi\nabc,def\n1,2,3\n-1,4\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Empty(t, rec.DailyActiveUsers)
	assert.Equal(t, 1, rec.Diagnostics.EmptySections)

	stats := rec.Diagnostics.Sections[gaexport.SectionActiveUsers]
	assert.Equal(t, 0, stats.Rows)
	assert.Equal(t, 1, stats.Skipped[gaexport.SkipInvalidNumber])
	assert.Equal(t, 1, stats.Skipped[gaexport.SkipFieldCount])
	assert.Equal(t, 1, stats.Skipped[gaexport.SkipNegativeDay])
}

func TestParseSkipsBadRowsButKeepsSection(t *testing.T) {
	text := "ID Paese,Utenti attivi\nIT,10\nFR,abc\n,4\nES,-2\nGB,3\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"IT", "GB"}, rec.Geography.Labels())
	skipped := rec.Diagnostics.Sections[gaexport.SectionGeography].Skipped
	assert.Equal(t, 1, skipped[gaexport.SkipInvalidNumber])
	assert.Equal(t, 1, skipped[gaexport.SkipEmptyLabel])
	assert.Equal(t, 1, skipped[gaexport.SkipNegativeValue])
}

func TestParseEmptyBlockDoesNotReplaceEarlierData(t *testing.T) {
	text := "N° giorno,Utenti attivi\n0,5\n1,6\n\nN° giorno,Utenti attivi\nnope,nope\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 6}, rec.DailyActiveUsers.Values())
	assert.Equal(t, 2, rec.Diagnostics.Sections[gaexport.SectionActiveUsers].Blocks)
}

func TestParseLaterBlockReplacesEarlierOne(t *testing.T) {
	text := "N° giorno,Utenti attivi\n0,5\n\nN° giorno,Utenti attivi\n0,7\n1,8\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []float64{7, 8}, rec.DailyActiveUsers.Values())
}

func TestParseLabelInsideDataDoesNotClassify(t *testing.T) {
	// "Titolo pagina" appears only in a data row, so the block stays a
	// traffic source table.
	text := "Gruppo di canali principale della sessione,Sessioni\nDirect,4\nTitolo pagina,2\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, 0, rec.Pages.Len())
	assert.Equal(t, []string{"Direct", "Titolo pagina"}, rec.TrafficSourcesSession.Labels())
}

func TestParseMojibakeExport(t *testing.T) {
	text := "# Propriet√†: Casa Delle Magnolie\n# Data di inizio: 20250301\n\nN¬∞ giorno,Nuovi utenti\n0,3\n1,4\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "Casa Delle Magnolie", rec.Metadata.Property)
	assert.Equal(t, "2025-03-01", rec.Metadata.StartDate)
	assert.Equal(t, []float64{3, 4}, rec.DailyNewUsers.Values())
}

func TestParseCRLFAndBOM(t *testing.T) {
	text := "\uFEFFN° giorno,Utenti attivi\r\n0,1\r\n1,2\r\n\r\nNome evento,Conteggio eventi\r\nclick,9\r\n"
	rec, err := gaexport.Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, rec.DailyActiveUsers.Values())
	count, ok := rec.Events.Get("click")
	require.True(t, ok)
	assert.Equal(t, int64(9), count)
}

func TestParseEnglishLabels(t *testing.T) {
	text := strings.Join([]string{
		"# Property: Demo Shop",
		"# Start date: 20250110",
		"# End date: 20250111",
		"",
		"Nth day,Active users",
		"0,4",
		"1,6",
		"",
		"Country ID,Active users",
		"US,7",
		"CA,3",
	}, "\n")

	rec, err := gaexport.Parse(text, gaexport.WithLabels(gaexport.EnglishLabels))
	require.NoError(t, err)

	assert.Equal(t, "Demo Shop", rec.Metadata.Property)
	assert.Equal(t, "2025-01-11", rec.Metadata.EndDate)
	assert.Equal(t, []float64{4, 6}, rec.DailyActiveUsers.Values())
	assert.Equal(t, []string{"US", "CA"}, rec.Geography.Labels())
}

func TestParseInvalidMetadataDate(t *testing.T) {
	rec, err := gaexport.Parse("# Data di inizio: 20261399\n# Account: acme\n")
	require.NoError(t, err)

	assert.Empty(t, rec.Metadata.StartDate)
	assert.Equal(t, "acme", rec.Metadata.Account)
}

func TestParseMaxLabelLenOption(t *testing.T) {
	text := "ID Paese,Utenti attivi\nItalia,10\nIT,2\n"

	rec, err := gaexport.Parse(text, gaexport.WithMaxLabelLen(gaexport.SectionGeography, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Italia", "IT"}, rec.Geography.Labels())

	rec, err = gaexport.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"IT"}, rec.Geography.Labels())
}

func TestParseBinaryInput(t *testing.T) {
	_, err := gaexport.Parse("PK\x03\x04\x00\x00binary")
	assert.ErrorIs(t, err, gaexport.ErrBinaryInput)
}

func TestParseReader(t *testing.T) {
	p, err := gaexport.New()
	require.NoError(t, err)

	t.Run("nil reader", func(t *testing.T) {
		_, err := p.ParseReader(nil)
		assert.ErrorIs(t, err, gaexport.ErrNilReader)
	})

	t.Run("read error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := p.ParseReader(iotest.ErrReader(boom))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("valid", func(t *testing.T) {
		rec, err := p.ParseReader(bytes.NewBufferString("Nome evento,Conteggio eventi\nscroll,3\n"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), gaexport.Sum(rec.Events))
	})
}
