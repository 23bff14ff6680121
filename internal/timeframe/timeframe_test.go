// Package timeframe_test contains tests for the timeframe package
package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal/gaexport"
	"reportlens/internal/timeframe"
)

func TestNewPeriod(t *testing.T) {
	testCases := []struct {
		name          string
		start         string
		end           string
		observed      int
		expectedDays  int
		expectedError bool
	}{
		{name: "both bounds", start: "2026-01-01", end: "2026-01-07", observed: 3, expectedDays: 7},
		{name: "single day", start: "2026-01-01", end: "2026-01-01", expectedDays: 1},
		{name: "across month", start: "2025-02-25", end: "2025-03-03", expectedDays: 7},
		{name: "missing end", start: "2026-01-01", observed: 3, expectedDays: 3},
		{name: "missing both", observed: 5, expectedDays: 5},
		{name: "malformed start", start: "01/01/2026", expectedError: true},
		{name: "end before start", start: "2026-01-07", end: "2026-01-01", expectedError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := timeframe.NewPeriod(tc.start, tc.end)
			if tc.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedDays, p.DurationDays(tc.observed))
		})
	}
}

func TestToDateStats(t *testing.T) {
	p, err := timeframe.NewPeriod("2026-01-30", "")
	require.NoError(t, err)

	series := gaexport.DaySeries{{Day: 2, Value: 15}, {Day: 0, Value: 10}, {Day: 1, Value: 20}}
	assert.Equal(t, []timeframe.DateStat{
		{Date: "2026-01-30", Value: 10},
		{Date: "2026-01-31", Value: 20},
		{Date: "2026-02-01", Value: 15},
	}, p.ToDateStats(series))

	assert.Equal(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), p.DayToDate(10))

	var noStart timeframe.Period
	assert.Nil(t, noStart.ToDateStats(series))
}

func TestBuildTimeSeriesPoints(t *testing.T) {
	p, err := timeframe.NewPeriod("2026-01-01", "2026-01-04")
	require.NoError(t, err)

	points := p.BuildTimeSeriesPoints(gaexport.DaySeries{{Day: 0, Value: 5}, {Day: 2, Value: 7}})
	assert.Equal(t, []timeframe.DateStat{
		{Date: "2026-01-01", Value: 5},
		{Date: "2026-01-02", Value: 0},
		{Date: "2026-01-03", Value: 7},
		{Date: "2026-01-04", Value: 0},
	}, points)

	open, err := timeframe.NewPeriod("2026-01-01", "")
	require.NoError(t, err)
	assert.Len(t, open.BuildTimeSeriesPoints(gaexport.DaySeries{{Day: 5, Value: 1}}), 6)
}

func TestCalculateTrend(t *testing.T) {
	assert.Equal(t, 0.0, timeframe.CalculateTrend(nil))
	assert.Equal(t, 0.0, timeframe.CalculateTrend([]timeframe.DateStat{{Value: 4}}))

	points := []timeframe.DateStat{{Value: 1}, {Value: 3}, {Value: 5}}
	assert.InDelta(t, 2.0, timeframe.CalculateTrend(points), 1e-9)
}
