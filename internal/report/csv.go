package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"reportlens/internal/analytics"
	"reportlens/internal/gaexport"
	"reportlens/internal/timeframe"
)

var dailyHeader = []string{"date", "day", "active_users", "new_users", "engagement_seconds", "revenue"}

// WriteDailyCSV joins the day series on their offset, one row per day of the
// period; days without a point are zero. The date column stays empty when the
// export has no start date.
func WriteDailyCSV(w io.Writer, rec *gaexport.Record) error {
	period, err := timeframe.NewPeriod(rec.Metadata.StartDate, rec.Metadata.EndDate)
	if err != nil {
		// An inconsistent header still leaves the offsets usable.
		period = timeframe.Period{}
	}

	columns := []gaexport.DaySeries{rec.DailyActiveUsers, rec.DailyNewUsers, rec.EngagementDuration, rec.Revenue}
	byDay := make([]map[int]float64, len(columns))
	lastDay := -1
	for i, series := range columns {
		byDay[i] = make(map[int]float64, len(series))
		for _, p := range series {
			byDay[i][p.Day] = p.Value
			if p.Day > lastDay {
				lastDay = p.Day
			}
		}
	}

	days := lastDay + 1
	if period.HasStart() {
		days = len(period.Days(columns...))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(dailyHeader); err != nil {
		return err
	}
	for day := 0; day < days; day++ {
		row := make([]string, 0, len(dailyHeader))
		date := ""
		if period.HasStart() {
			date = period.DayToDate(day).Format(timeframe.DateLayout)
		}
		row = append(row, date, strconv.Itoa(day))
		for i := range columns {
			row = append(row, num(byDay[i][day]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV flattens a summary into section,key,value rows.
func WriteSummaryCSV(w io.Writer, s *analytics.Summary) error {
	cw := csv.NewWriter(w)
	rows := summaryRows(s)
	if err := cw.Write([]string{"section", "key", "value"}); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write summary CSV: %w", err)
	}
	return nil
}

type rowBuilder [][]string

func (rb *rowBuilder) add(section, key string, value any) {
	var v string
	switch x := value.(type) {
	case float64:
		v = num(x)
	case string:
		v = x
	default:
		v = fmt.Sprint(x)
	}
	*rb = append(*rb, []string{section, key, v})
}

func addCounts(rb *rowBuilder, section, prefix string, ct gaexport.CategoryTotals) {
	for _, e := range ct.Entries() {
		rb.add(section, prefix+"."+e.Label, e.Value)
	}
}

func addShares(rb *rowBuilder, section, prefix string, p gaexport.Ordered[float64]) {
	for _, e := range p.Entries() {
		rb.add(section, prefix+"."+e.Label, e.Value)
	}
}

func summaryRows(s *analytics.Summary) [][]string {
	var rb rowBuilder

	rb.add("period", "start", s.Period.Start)
	rb.add("period", "end", s.Period.End)
	rb.add("period", "duration_days", s.Period.DurationDays)
	rb.add("period", "calendar_days", s.Period.CalendarDays)

	rb.add("users", "total_active_users", s.Users.TotalActiveUsers)
	rb.add("users", "total_new_users", s.Users.TotalNewUsers)
	rb.add("users", "returning_users", s.Users.ReturningUsers)
	rb.add("users", "avg_daily_users", s.Users.AvgDailyUsers)
	rb.add("users", "peak_day", s.Users.PeakDay)
	rb.add("users", "peak_day_users", s.Users.PeakDayUsers)
	rb.add("users", "growth_trend", string(s.Users.GrowthTrend))
	rb.add("users", "daily_slope", s.Users.DailySlope)

	rb.add("traffic_sources", "total_new_users", s.TrafficSources.TotalNewUsers)
	rb.add("traffic_sources", "total_sessions", s.TrafficSources.TotalSessions)
	rb.add("traffic_sources", "top_source", s.TrafficSources.TopSource)
	rb.add("traffic_sources", "top_source_users", s.TrafficSources.TopSourceUsers)
	addCounts(&rb, "traffic_sources", "new_users_by_source", s.TrafficSources.NewUsersBySource)
	addCounts(&rb, "traffic_sources", "sessions_by_source", s.TrafficSources.SessionsBySource)
	addShares(&rb, "traffic_sources", "source_percentages", s.TrafficSources.SourcePercentages)
	addShares(&rb, "traffic_sources", "session_percentages", s.TrafficSources.SessionPercentages)

	rb.add("geography", "total_users", s.Geography.TotalUsers)
	rb.add("geography", "top_country", s.Geography.TopCountry)
	rb.add("geography", "top_country_users", s.Geography.TopCountryUsers)
	rb.add("geography", "country_count", s.Geography.CountryCount)
	addCounts(&rb, "geography", "countries", s.Geography.Countries)
	addShares(&rb, "geography", "country_percentages", s.Geography.CountryPercentages)
	addCounts(&rb, "geography", "regions", s.Geography.Regions)

	rb.add("content", "total_pageviews", s.Content.TotalPageviews)
	rb.add("content", "unique_pages", s.Content.UniquePages)
	rb.add("content", "top_page", s.Content.TopPage)
	rb.add("content", "top_page_views", s.Content.TopPageViews)
	rb.add("content", "total_events", s.Content.TotalEvents)
	rb.add("content", "top_event", s.Content.TopEvent)
	addCounts(&rb, "content", "pages", s.Content.Pages)
	addCounts(&rb, "content", "events", s.Content.Events)

	rb.add("engagement", "avg_engagement_seconds", s.Engagement.AvgEngagementSeconds)
	rb.add("engagement", "avg_engagement_minutes", s.Engagement.AvgEngagementMinutes)
	rb.add("engagement", "engaged_days", s.Engagement.EngagedDays)
	rb.add("engagement", "observed_days", s.Engagement.ObservedDays)

	rb.add("revenue", "total_revenue", s.Revenue.TotalRevenue)
	rb.add("revenue", "avg_daily_revenue", s.Revenue.AvgDailyRevenue)
	rb.add("revenue", "peak_day", s.Revenue.PeakDay)
	rb.add("revenue", "peak_day_revenue", s.Revenue.PeakDayRevenue)

	rb.add("activity", "latest_day", s.Activity.LatestDay)
	rb.add("activity", "users_30d", s.Activity.Users30d)
	rb.add("activity", "users_7d", s.Activity.Users7d)
	rb.add("activity", "users_1d", s.Activity.Users1d)
	rb.add("activity", "stickiness", s.Activity.Stickiness)

	rb.add("rates", "new_user_rate", s.Rates.NewUserRate)
	rb.add("rates", "returning_user_rate", s.Rates.ReturningUserRate)
	rb.add("rates", "pageviews_per_user", s.Rates.PageviewsPerUser)
	rb.add("rates", "events_per_user", s.Rates.EventsPerUser)

	return rb
}
