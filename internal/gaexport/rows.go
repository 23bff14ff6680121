package gaexport

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// rowResult is the outcome of parsing one line: either a row or the reason
// it was skipped.
type rowResult struct {
	day   DayValue
	cat   Entry[int64]
	trend TrendPoint
	skip  SkipReason
}

func (r rowResult) ok() bool { return r.skip == "" }

func skipped(reason SkipReason) rowResult { return rowResult{skip: reason} }

// rowRules are the per-section parsing knobs.
type rowRules struct {
	// splitLast splits unquoted lines on the last separator, so that page
	// titles containing commas survive without quoting.
	splitLast bool
	// maxLabelLen bounds label length in runes; 0 means unbounded.
	maxLabelLen int
}

func parseDayRow(line string) rowResult {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return skipped(SkipFieldCount)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return skipped(SkipInvalidNumber)
	}
	if day < 0 {
		return skipped(SkipNegativeDay)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return skipped(SkipInvalidNumber)
	}
	return rowResult{day: DayValue{Day: day, Value: value}}
}

func parseTrendRow(line string) rowResult {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return skipped(SkipFieldCount)
	}
	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return skipped(SkipInvalidNumber)
		}
		nums[i] = n
	}
	if nums[0] < 0 {
		return skipped(SkipNegativeDay)
	}
	return rowResult{trend: TrendPoint{Day: nums[0], Users30d: nums[1], Users7d: nums[2], Users1d: nums[3]}}
}

func parseCategoryRow(line string, rules rowRules) rowResult {
	label, value, reason := splitLabelValue(line, rules.splitLast)
	if reason != "" {
		return skipped(reason)
	}

	count, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return skipped(SkipInvalidNumber)
	}
	if count < 0 {
		return skipped(SkipNegativeValue)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return skipped(SkipEmptyLabel)
	}
	if rules.maxLabelLen > 0 && utf8.RuneCountInString(label) > rules.maxLabelLen {
		return skipped(SkipLabelTooLong)
	}
	return rowResult{cat: Entry[int64]{Label: label, Value: count}}
}

// splitLabelValue splits a two-field line. A line starting with a double
// quote carries a quoted label that may contain commas; "" inside the quotes
// is a literal quote.
func splitLabelValue(line string, splitLast bool) (label, value string, reason SkipReason) {
	if strings.HasPrefix(line, `"`) {
		return splitQuoted(line)
	}
	if splitLast {
		idx := strings.LastIndex(line, ",")
		if idx < 0 {
			return "", "", SkipFieldCount
		}
		return line[:idx], line[idx+1:], ""
	}
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return "", "", SkipFieldCount
	}
	return parts[0], parts[1], ""
}

func splitQuoted(line string) (label, value string, reason SkipReason) {
	var b strings.Builder
	for i := 1; i < len(line); i++ {
		c := line[i]
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(line) && line[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		rest := line[i+1:]
		if !strings.HasPrefix(rest, ",") || strings.Contains(rest[1:], ",") {
			return "", "", SkipFieldCount
		}
		return b.String(), rest[1:], ""
	}
	return "", "", SkipUnterminatedQuote
}
