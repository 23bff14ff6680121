package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal/analytics"
)

func TestCalculateComparisonMetrics(t *testing.T) {
	metrics := analytics.CalculateComparisonMetrics(analytics.ComparisonData{
		CurrentActiveUsers:  150,
		PreviousActiveUsers: 100,
		CurrentNewUsers:     40,
		PreviousNewUsers:    80,
		CurrentPageviews:    10,
		PreviousPageviews:   0,
		CurrentRevenue:      3,
		PreviousRevenue:     9,
	})

	require.NotNil(t, metrics.ActiveUsersChange)
	assert.Equal(t, 50.0, *metrics.ActiveUsersChange)
	require.NotNil(t, metrics.NewUsersChange)
	assert.Equal(t, -50.0, *metrics.NewUsersChange)
	require.NotNil(t, metrics.RevenueChange)
	assert.Equal(t, -66.67, *metrics.RevenueChange)

	assert.Nil(t, metrics.PageviewsChange)
	assert.Nil(t, metrics.EventsChange)
	assert.Nil(t, metrics.AvgEngagementChange)
}

func TestCompare(t *testing.T) {
	current := &analytics.Summary{}
	current.Users.TotalActiveUsers = 110
	current.Content.TotalEvents = 30

	previous := &analytics.Summary{}
	previous.Users.TotalActiveUsers = 100
	previous.Content.TotalEvents = 40

	metrics := analytics.Compare(current, previous)
	require.NotNil(t, metrics.ActiveUsersChange)
	assert.Equal(t, 10.0, *metrics.ActiveUsersChange)
	require.NotNil(t, metrics.EventsChange)
	assert.Equal(t, -25.0, *metrics.EventsChange)
	assert.Nil(t, metrics.PageviewsChange)

	assert.Equal(t, &analytics.ComparisonMetrics{}, analytics.Compare(current, nil))
}
