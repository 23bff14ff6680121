package timeframe

import (
	"fmt"
	"sort"
	"time"

	"reportlens/internal/gaexport"
)

// DateLayout is the calendar layout used for every date this package emits.
const DateLayout = gaexport.DateLayout

type DateStat struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider reads the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// Period is the reporting window of one export. Either bound may be zero when
// the export header did not carry it.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod parses metadata dates. Empty strings leave the bound unset; a
// malformed date is an error.
func NewPeriod(start, end string) (Period, error) {
	var (
		p   Period
		err error
	)
	if start != "" {
		if p.Start, err = time.Parse(DateLayout, start); err != nil {
			return Period{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if p.End, err = time.Parse(DateLayout, end); err != nil {
			return Period{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if p.HasStart() && p.HasEnd() && p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return p, nil
}

func (p Period) HasStart() bool { return !p.Start.IsZero() }
func (p Period) HasEnd() bool   { return !p.End.IsZero() }

// DurationDays counts both bounds inclusively. Without both bounds it falls
// back to the number of observed days.
func (p Period) DurationDays(observedDays int) int {
	if !p.HasStart() || !p.HasEnd() {
		return observedDays
	}
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// DayToDate maps a day offset to its calendar date.
func (p Period) DayToDate(day int) time.Time {
	return p.Start.AddDate(0, 0, day)
}

// ToDateStats converts a day series into dated points ordered by day. It
// returns nil when the period has no start date.
func (p Period) ToDateStats(series gaexport.DaySeries) []DateStat {
	if !p.HasStart() {
		return nil
	}
	sorted := make(gaexport.DaySeries, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })

	out := make([]DateStat, len(sorted))
	for i, point := range sorted {
		out[i] = DateStat{Date: p.DayToDate(point.Day).Format(DateLayout), Value: point.Value}
	}
	return out
}

// Days lists every calendar date of the period. Without an end date the last
// offset present in the series bounds the list.
func (p Period) Days(series ...gaexport.DaySeries) []string {
	if !p.HasStart() {
		return nil
	}
	last := -1
	if p.HasEnd() {
		last = p.DurationDays(0) - 1
	}
	for _, s := range series {
		for _, point := range s {
			if point.Day > last {
				last = point.Day
			}
		}
	}
	out := make([]string, 0, last+1)
	for day := 0; day <= last; day++ {
		out = append(out, p.DayToDate(day).Format(DateLayout))
	}
	return out
}

// BuildTimeSeriesPoints fills the gaps of a series so that every day of the
// period has a point. Missing days are zero.
func (p Period) BuildTimeSeriesPoints(series gaexport.DaySeries) []DateStat {
	dates := p.Days(series)
	resultsMap := make(map[string]float64, len(series))
	for _, stat := range p.ToDateStats(series) {
		resultsMap[stat.Date] = stat.Value
	}

	results := make([]DateStat, len(dates))
	for i, date := range dates {
		results[i] = DateStat{Date: date, Value: resultsMap[date]}
	}
	return results
}

// CalculateTrend is the least-squares slope of the points, in value per day.
func CalculateTrend(points []DateStat) float64 {
	if len(points) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(points))

	for i, point := range points {
		x := float64(i)
		y := point.Value

		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	return (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
}
