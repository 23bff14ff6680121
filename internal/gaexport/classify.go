package gaexport

import "strings"

// classifier maps a block head to a section kind.
type classifier struct {
	kind  SectionKind
	match func(b block, l Labels) bool
}

// classifiers is evaluated top to bottom and the first match wins. Tables
// with distinctive multi-column headers come first because the generic
// "active users" and "new users" labels also appear in their headers; the
// plain day series are tested last.
var classifiers = []classifier{
	{SectionUserTrends, func(b block, l Labels) bool {
		return titleContains(b, l.TrendTitle) ||
			(l.hasDayColumn(b.header) && strings.Contains(b.header, l.Trend30Days))
	}},
	{SectionTrafficNew, func(b block, l Labels) bool {
		return titleContains(b, l.NewUsersTitle) || strings.Contains(b.header, l.FirstUserGroup)
	}},
	{SectionTrafficSessions, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.SessionGroup)
	}},
	{SectionGeography, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.CountryID) ||
			(strings.Contains(b.header, l.Country) && strings.Contains(b.header, l.ActiveUsers))
	}},
	{SectionPages, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.PageTitle)
	}},
	{SectionEvents, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.EventName) && strings.Contains(b.header, l.EventCount)
	}},
	{SectionEngagement, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.Engagement)
	}},
	{SectionRevenue, func(b block, l Labels) bool {
		return strings.Contains(b.header, l.Revenue)
	}},
	{SectionActiveUsers, func(b block, l Labels) bool {
		return l.hasDayColumn(b.header) && strings.Contains(b.header, l.ActiveUsers)
	}},
	{SectionNewUsers, func(b block, l Labels) bool {
		return l.hasDayColumn(b.header) && strings.Contains(b.header, l.NewUsers)
	}},
}

func titleContains(b block, s string) bool {
	for _, line := range b.title {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// classify returns the kind of the first matching classifier.
func classify(b block, l Labels) (SectionKind, bool) {
	if b.header == "" {
		return "", false
	}
	for _, c := range classifiers {
		if c.match(b, l) {
			return c.kind, true
		}
	}
	return "", false
}

// ClassifierOrder lists section kinds in the order they are tested.
func ClassifierOrder() []SectionKind {
	out := make([]SectionKind, len(classifiers))
	for i, c := range classifiers {
		out[i] = c.kind
	}
	return out
}
