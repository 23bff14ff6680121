package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reportlens/internal/analytics"
	"reportlens/internal/gaexport"
)

const (
	lineWidth     = 80
	maxTitleRunes = 70
	topListSize   = 5
)

// textWriter accumulates the first write error so that rendering code can
// stay linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) line(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format+"\n", args...)
}

func (tw *textWriter) heading(title string) {
	tw.line("%s", cases.Upper(language.Und).String(title))
	tw.line("%s", strings.Repeat("-", lineWidth))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// WriteText renders the plain text report of a summary.
func WriteText(w io.Writer, meta gaexport.Metadata, s *analytics.Summary) error {
	tw := &textWriter{w: w}
	property := meta.Property
	if property == "" {
		property = analytics.NotAvailable
	}

	tw.line("%s", strings.Repeat("=", lineWidth))
	tw.line("ANALYTICS REPORT - %s", cases.Upper(language.Und).String(property))
	tw.line("%s", strings.Repeat("=", lineWidth))
	tw.line("")
	tw.line("Property: %s", property)
	tw.line("Period: %s - %s", s.Period.Start, s.Period.End)
	tw.line("Duration: %d days", s.Period.DurationDays)
	if s.Period.CalendarDays > 0 {
		tw.line("Calendar span: %d days", s.Period.CalendarDays)
	}
	tw.line("")

	tw.heading("users")
	tw.line("Total active users: %s", num(s.Users.TotalActiveUsers))
	tw.line("New users: %s", num(s.Users.TotalNewUsers))
	tw.line("Returning users: %s", num(s.Users.ReturningUsers))
	tw.line("Average daily users: %s", num(s.Users.AvgDailyUsers))
	tw.line("Peak: %s (day %d)", num(s.Users.PeakDayUsers), s.Users.PeakDay)
	tw.line("Trend: %s", s.Users.GrowthTrend)
	tw.line("")

	tw.heading("traffic sources")
	for _, e := range s.TrafficSources.SourcePercentages.Entries() {
		count, _ := s.TrafficSources.NewUsersBySource.Get(e.Label)
		tw.line("%s: %d users (%s%%)", e.Label, count, num(e.Value))
	}
	tw.line("Top source: %s", s.TrafficSources.TopSource)
	tw.line("")

	tw.heading("geography")
	tw.line("Countries reached: %d", s.Geography.CountryCount)
	tw.line("Top country: %s (%d users)", s.Geography.TopCountry, s.Geography.TopCountryUsers)
	tw.line("")
	tw.line("Top %d countries:", topListSize)
	for _, c := range analytics.TopN(s.Geography.Countries, topListSize) {
		name, ok := s.Geography.CountryNames.Get(c.Name)
		if !ok {
			name = c.Name
		}
		pct, _ := s.Geography.CountryPercentages.Get(c.Name)
		tw.line("  %s: %d users (%s%%)", name, c.Count, num(pct))
	}
	tw.line("")

	tw.heading("content")
	tw.line("Total pageviews: %d", s.Content.TotalPageviews)
	tw.line("Unique pages: %d", s.Content.UniquePages)
	tw.line("Total events: %d", s.Content.TotalEvents)
	tw.line("")
	tw.line("Top %d pages:", topListSize)
	for i, e := range s.Content.Pages.Entries() {
		if i == topListSize {
			break
		}
		tw.line("  %d. %s (%d views)", i+1, truncate(e.Label, maxTitleRunes), e.Value)
	}
	tw.line("")

	tw.heading("engagement")
	tw.line("Average engagement time: %s minutes", num(s.Engagement.AvgEngagementMinutes))
	tw.line("Days with engaged users: %d of %d", s.Engagement.EngagedDays, s.Engagement.ObservedDays)
	tw.line("")
	tw.line("%s", strings.Repeat("=", lineWidth))

	return tw.err
}
