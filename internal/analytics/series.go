package analytics

import (
	"math"
	"sort"

	"reportlens/internal/gaexport"
)

// Trend is the coarse direction of a day series.
type Trend string

const (
	TrendGrowth           Trend = "growth"
	TrendDecline          Trend = "decline"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// trendThreshold is the relative change between half means that counts as
// growth or decline.
const trendThreshold = 0.10

// Total sums a series.
func Total(series gaexport.DaySeries) float64 {
	var total float64
	for _, p := range series {
		total += p.Value
	}
	return total
}

// Average is the arithmetic mean of a series, 0 when empty.
func Average(series gaexport.DaySeries) float64 {
	if len(series) == 0 {
		return 0
	}
	return Total(series) / float64(len(series))
}

// Peak returns the first point holding the maximum value, or the zero point
// for an empty series.
func Peak(series gaexport.DaySeries) gaexport.DayValue {
	if len(series) == 0 {
		return gaexport.DayValue{}
	}
	peak := series[0]
	for _, p := range series[1:] {
		if p.Value > peak.Value {
			peak = p
		}
	}
	return peak
}

// AverageNonZero averages the strictly positive values only. It also reports
// how many values were positive.
func AverageNonZero(series gaexport.DaySeries) (avg float64, positive int) {
	var total float64
	for _, p := range series {
		if p.Value > 0 {
			total += p.Value
			positive++
		}
	}
	if positive == 0 {
		return 0, 0
	}
	return total / float64(positive), positive
}

// ClassifyTrend compares the mean of the second half of the series with the
// mean of the first half. Halves are split by position in export order, not by
// day; for odd lengths the extra point belongs to the second half.
func ClassifyTrend(series gaexport.DaySeries) Trend {
	n := len(series)
	if n < 2 {
		return TrendInsufficientData
	}

	values := series.Values()
	mid := n / 2
	first := mean(values[:mid])
	second := mean(values[mid:])

	switch {
	case second > first*(1+trendThreshold):
		return TrendGrowth
	case second < first*(1-trendThreshold):
		return TrendDecline
	default:
		return TrendStable
	}
}

func sortedByDay(series gaexport.DaySeries) gaexport.DaySeries {
	sorted := make(gaexport.DaySeries, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })
	return sorted
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ratio returns num/den, or 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
