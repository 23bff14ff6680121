// Package analytics derives summary statistics from parsed analytics exports.
//
// The package is organized into focused modules:
//   - analytics.go: Summary model and Summarize
//   - series.go: totals, averages, peaks and trend classification of day series
//   - breakdown.go: percentage breakdowns and top-N ranking of category maps
//   - geography.go: country resolution and per-region totals
//   - comparison.go: period-over-period changes between two summaries
//
// Every function here is pure: the same Record always yields the same Summary
// and empty input yields zero values, never an error.
package analytics

import (
	"log/slog"

	"reportlens/internal/gaexport"
	"reportlens/internal/timeframe"
)

// DefaultTopPages is how many pages Summary.Content.Pages keeps.
const DefaultTopPages = 10

// MetricCountResult represents a generic key-count pair
type MetricCountResult struct {
	Name  string `json:"name" yaml:"name"`
	Count int64  `json:"count" yaml:"count"`
}

type PeriodSummary struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	// DurationDays is the number of active-user points in the export.
	DurationDays int `json:"duration_days" yaml:"duration_days"`
	// CalendarDays spans start to end inclusively; 0 unless both dates parse.
	CalendarDays int `json:"calendar_days" yaml:"calendar_days"`
}

type UserSummary struct {
	TotalActiveUsers float64 `json:"total_active_users" yaml:"total_active_users"`
	TotalNewUsers    float64 `json:"total_new_users" yaml:"total_new_users"`
	// ReturningUsers is active minus new and goes negative when the export
	// reports more new users than active ones.
	ReturningUsers float64 `json:"returning_users" yaml:"returning_users"`
	AvgDailyUsers  float64 `json:"avg_daily_users" yaml:"avg_daily_users"`
	PeakDay        int     `json:"peak_day" yaml:"peak_day"`
	PeakDayUsers   float64 `json:"peak_day_users" yaml:"peak_day_users"`
	GrowthTrend    Trend   `json:"growth_trend" yaml:"growth_trend"`
	// DailySlope is the least-squares slope of active users per day.
	DailySlope float64 `json:"daily_slope" yaml:"daily_slope"`
}

type TrafficSummary struct {
	NewUsersBySource   gaexport.CategoryTotals   `json:"new_users_by_source" yaml:"new_users_by_source"`
	SessionsBySource   gaexport.CategoryTotals   `json:"sessions_by_source" yaml:"sessions_by_source"`
	TotalNewUsers      int64                     `json:"total_new_users" yaml:"total_new_users"`
	TotalSessions      int64                     `json:"total_sessions" yaml:"total_sessions"`
	TopSource          string                    `json:"top_source" yaml:"top_source"`
	TopSourceUsers     int64                     `json:"top_source_users" yaml:"top_source_users"`
	SourcePercentages  gaexport.Ordered[float64] `json:"source_percentages" yaml:"source_percentages"`
	SessionPercentages gaexport.Ordered[float64] `json:"session_percentages" yaml:"session_percentages"`
}

type ContentSummary struct {
	TotalPageviews int64  `json:"total_pageviews" yaml:"total_pageviews"`
	UniquePages    int    `json:"unique_pages" yaml:"unique_pages"`
	TopPage        string `json:"top_page" yaml:"top_page"`
	TopPageViews   int64  `json:"top_page_views" yaml:"top_page_views"`
	// Pages holds the top pages by views, highest first.
	Pages       gaexport.CategoryTotals `json:"pages" yaml:"pages"`
	Events      gaexport.CategoryTotals `json:"events" yaml:"events"`
	TotalEvents int64                   `json:"total_events" yaml:"total_events"`
	TopEvent    string                  `json:"top_event" yaml:"top_event"`
}

type EngagementSummary struct {
	AvgEngagementSeconds float64 `json:"avg_engagement_seconds" yaml:"avg_engagement_seconds"`
	AvgEngagementMinutes float64 `json:"avg_engagement_minutes" yaml:"avg_engagement_minutes"`
	EngagedDays          int     `json:"engaged_days" yaml:"engaged_days"`
	ObservedDays         int     `json:"observed_days" yaml:"observed_days"`
}

type RevenueSummary struct {
	TotalRevenue    float64 `json:"total_revenue" yaml:"total_revenue"`
	AvgDailyRevenue float64 `json:"avg_daily_revenue" yaml:"avg_daily_revenue"`
	PeakDay         int     `json:"peak_day" yaml:"peak_day"`
	PeakDayRevenue  float64 `json:"peak_day_revenue" yaml:"peak_day_revenue"`
}

// ActivitySummary is the last row of the 30/7/1-day active users table.
type ActivitySummary struct {
	LatestDay int `json:"latest_day" yaml:"latest_day"`
	Users30d  int `json:"users_30d" yaml:"users_30d"`
	Users7d   int `json:"users_7d" yaml:"users_7d"`
	Users1d   int `json:"users_1d" yaml:"users_1d"`
	// Stickiness is 1-day over 30-day active users, in percent.
	Stickiness float64 `json:"stickiness" yaml:"stickiness"`
}

type RatesSummary struct {
	NewUserRate       float64 `json:"new_user_rate" yaml:"new_user_rate"`
	ReturningUserRate float64 `json:"returning_user_rate" yaml:"returning_user_rate"`
	PageviewsPerUser  float64 `json:"pageviews_per_user" yaml:"pageviews_per_user"`
	EventsPerUser     float64 `json:"events_per_user" yaml:"events_per_user"`
}

// Summary is the derived view of one Record. Every field is always present;
// missing data shows up as zeros and NotAvailable.
type Summary struct {
	Period         PeriodSummary     `json:"period" yaml:"period"`
	Users          UserSummary       `json:"users" yaml:"users"`
	TrafficSources TrafficSummary    `json:"traffic_sources" yaml:"traffic_sources"`
	Geography      GeographySummary  `json:"geography" yaml:"geography"`
	Content        ContentSummary    `json:"content" yaml:"content"`
	Engagement     EngagementSummary `json:"engagement" yaml:"engagement"`
	Revenue        RevenueSummary    `json:"revenue" yaml:"revenue"`
	Activity       ActivitySummary   `json:"activity" yaml:"activity"`
	Rates          RatesSummary      `json:"rates" yaml:"rates"`
}

type options struct {
	topPages int
	resolver CountryResolver
	logger   *slog.Logger
}

// Option configures Summarize.
type Option func(*options)

// WithTopPages sets how many pages the content summary keeps.
func WithTopPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topPages = n
		}
	}
}

// WithCountryResolver replaces the gountries lookup.
func WithCountryResolver(r CountryResolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Summarize computes the Summary of a Record. A nil record summarizes as an
// empty one.
func Summarize(rec *gaexport.Record, opts ...Option) *Summary {
	o := options{topPages: DefaultTopPages}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = NewCountryResolver()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if rec == nil {
		rec = gaexport.NewRecord()
	}

	s := &Summary{
		Period:         summarizePeriod(rec, o.logger),
		Users:          summarizeUsers(rec),
		TrafficSources: summarizeTraffic(rec),
		Geography:      summarizeGeography(rec.Geography, o.resolver),
		Content:        summarizeContent(rec, o.topPages),
		Engagement:     summarizeEngagement(rec.EngagementDuration),
		Revenue:        summarizeRevenue(rec.Revenue),
		Activity:       summarizeActivity(rec.UserTrends),
	}
	s.Rates = summarizeRates(s)

	o.logger.Debug("Summarized analytics export",
		slog.String("property", rec.Metadata.Property),
		slog.String("start", s.Period.Start),
		slog.Int("duration_days", s.Period.DurationDays),
		slog.String("trend", string(s.Users.GrowthTrend)))
	return s
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func summarizePeriod(rec *gaexport.Record, logger *slog.Logger) PeriodSummary {
	summary := PeriodSummary{
		Start:        orNotAvailable(rec.Metadata.StartDate),
		End:          orNotAvailable(rec.Metadata.EndDate),
		DurationDays: len(rec.DailyActiveUsers),
	}
	period, err := timeframe.NewPeriod(rec.Metadata.StartDate, rec.Metadata.EndDate)
	if err != nil {
		logger.Warn("Ignoring inconsistent export period", slog.Any("error", err))
		return summary
	}
	summary.CalendarDays = period.DurationDays(0)
	return summary
}

func summarizeUsers(rec *gaexport.Record) UserSummary {
	active := Total(rec.DailyActiveUsers)
	newUsers := Total(rec.DailyNewUsers)
	peak := Peak(rec.DailyActiveUsers)

	points := make([]timeframe.DateStat, 0, len(rec.DailyActiveUsers))
	for _, p := range sortedByDay(rec.DailyActiveUsers) {
		points = append(points, timeframe.DateStat{Value: p.Value})
	}

	return UserSummary{
		TotalActiveUsers: active,
		TotalNewUsers:    newUsers,
		ReturningUsers:   active - newUsers,
		AvgDailyUsers:    round2(Average(rec.DailyActiveUsers)),
		PeakDay:          peak.Day,
		PeakDayUsers:     peak.Value,
		GrowthTrend:      ClassifyTrend(rec.DailyActiveUsers),
		DailySlope:       round2(timeframe.CalculateTrend(points)),
	}
}

func summarizeTraffic(rec *gaexport.Record) TrafficSummary {
	top := Top(rec.TrafficSourcesNew)
	return TrafficSummary{
		NewUsersBySource:   rec.TrafficSourcesNew,
		SessionsBySource:   rec.TrafficSourcesSession,
		TotalNewUsers:      gaexport.Sum(rec.TrafficSourcesNew),
		TotalSessions:      gaexport.Sum(rec.TrafficSourcesSession),
		TopSource:          top.Name,
		TopSourceUsers:     top.Count,
		SourcePercentages:  Percentages(rec.TrafficSourcesNew),
		SessionPercentages: Percentages(rec.TrafficSourcesSession),
	}
}

func summarizeContent(rec *gaexport.Record, topPages int) ContentSummary {
	topPage := Top(rec.Pages)
	return ContentSummary{
		TotalPageviews: gaexport.Sum(rec.Pages),
		UniquePages:    rec.Pages.Len(),
		TopPage:        topPage.Name,
		TopPageViews:   topPage.Count,
		Pages:          toOrdered(TopN(rec.Pages, topPages)),
		Events:         rec.Events,
		TotalEvents:    gaexport.Sum(rec.Events),
		TopEvent:       Top(rec.Events).Name,
	}
}

func summarizeEngagement(series gaexport.DaySeries) EngagementSummary {
	avg, engaged := AverageNonZero(series)
	return EngagementSummary{
		AvgEngagementSeconds: round2(avg),
		AvgEngagementMinutes: round2(avg / 60),
		EngagedDays:          engaged,
		ObservedDays:         len(series),
	}
}

func summarizeRevenue(series gaexport.DaySeries) RevenueSummary {
	peak := Peak(series)
	return RevenueSummary{
		TotalRevenue:    round2(Total(series)),
		AvgDailyRevenue: round2(Average(series)),
		PeakDay:         peak.Day,
		PeakDayRevenue:  peak.Value,
	}
}

func summarizeActivity(trends []gaexport.TrendPoint) ActivitySummary {
	if len(trends) == 0 {
		return ActivitySummary{}
	}
	latest := trends[0]
	for _, p := range trends[1:] {
		if p.Day >= latest.Day {
			latest = p
		}
	}
	return ActivitySummary{
		LatestDay:  latest.Day,
		Users30d:   latest.Users30d,
		Users7d:    latest.Users7d,
		Users1d:    latest.Users1d,
		Stickiness: round2(ratio(float64(latest.Users1d), float64(latest.Users30d)) * 100),
	}
}

func summarizeRates(s *Summary) RatesSummary {
	active := s.Users.TotalActiveUsers
	return RatesSummary{
		NewUserRate:       round2(ratio(s.Users.TotalNewUsers, active) * 100),
		ReturningUserRate: round2(ratio(s.Users.ReturningUsers, active) * 100),
		PageviewsPerUser:  round2(ratio(float64(s.Content.TotalPageviews), active)),
		EventsPerUser:     round2(ratio(float64(s.Content.TotalEvents), active)),
	}
}
