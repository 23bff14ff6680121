package analytics

// ComparisonMetrics represents period-over-period percentage changes for key
// metrics. A change is nil when the previous period had nothing to compare to.
type ComparisonMetrics struct {
	ActiveUsersChange   *float64 `json:"active_users_change,omitempty" yaml:"active_users_change,omitempty"`
	NewUsersChange      *float64 `json:"new_users_change,omitempty" yaml:"new_users_change,omitempty"`
	PageviewsChange     *float64 `json:"pageviews_change,omitempty" yaml:"pageviews_change,omitempty"`
	EventsChange        *float64 `json:"events_change,omitempty" yaml:"events_change,omitempty"`
	AvgEngagementChange *float64 `json:"avg_engagement_change,omitempty" yaml:"avg_engagement_change,omitempty"`
	RevenueChange       *float64 `json:"revenue_change,omitempty" yaml:"revenue_change,omitempty"`
}

// ComparisonData holds current and previous period metrics for comparison
type ComparisonData struct {
	CurrentActiveUsers    float64
	PreviousActiveUsers   float64
	CurrentNewUsers       float64
	PreviousNewUsers      float64
	CurrentPageviews      int64
	PreviousPageviews     int64
	CurrentEvents         int64
	PreviousEvents        int64
	CurrentAvgEngagement  float64
	PreviousAvgEngagement float64
	CurrentRevenue        float64
	PreviousRevenue       float64
}

func calculatePercentageChange(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	change := round2((current - previous) / previous * 100)
	return &change
}

// CalculateComparisonMetrics computes period-over-period percentage changes
func CalculateComparisonMetrics(data ComparisonData) *ComparisonMetrics {
	return &ComparisonMetrics{
		ActiveUsersChange:   calculatePercentageChange(data.CurrentActiveUsers, data.PreviousActiveUsers),
		NewUsersChange:      calculatePercentageChange(data.CurrentNewUsers, data.PreviousNewUsers),
		PageviewsChange:     calculatePercentageChange(float64(data.CurrentPageviews), float64(data.PreviousPageviews)),
		EventsChange:        calculatePercentageChange(float64(data.CurrentEvents), float64(data.PreviousEvents)),
		AvgEngagementChange: calculatePercentageChange(data.CurrentAvgEngagement, data.PreviousAvgEngagement),
		RevenueChange:       calculatePercentageChange(data.CurrentRevenue, data.PreviousRevenue),
	}
}

// Compare computes the changes from previous to current. A nil previous
// summary yields no changes at all.
func Compare(current, previous *Summary) *ComparisonMetrics {
	if current == nil || previous == nil {
		return &ComparisonMetrics{}
	}
	return CalculateComparisonMetrics(ComparisonData{
		CurrentActiveUsers:    current.Users.TotalActiveUsers,
		PreviousActiveUsers:   previous.Users.TotalActiveUsers,
		CurrentNewUsers:       current.Users.TotalNewUsers,
		PreviousNewUsers:      previous.Users.TotalNewUsers,
		CurrentPageviews:      current.Content.TotalPageviews,
		PreviousPageviews:     previous.Content.TotalPageviews,
		CurrentEvents:         current.Content.TotalEvents,
		PreviousEvents:        previous.Content.TotalEvents,
		CurrentAvgEngagement:  current.Engagement.AvgEngagementSeconds,
		PreviousAvgEngagement: previous.Engagement.AvgEngagementSeconds,
		CurrentRevenue:        current.Revenue.TotalRevenue,
		PreviousRevenue:       previous.Revenue.TotalRevenue,
	})
}
