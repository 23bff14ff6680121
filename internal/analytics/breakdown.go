package analytics

import (
	"sort"

	"reportlens/internal/gaexport"
)

// NotAvailable stands in for labels and dates the export did not provide.
const NotAvailable = "N/A"

// Percentages returns each entry's share of the total in percent, rounded to
// two decimals, keyed in the map's order. Every share is 0 when the total is 0.
// Shares are rounded one by one, so their sum may drift from 100 by up to
// half a hundredth per entry.
func Percentages(ct gaexport.CategoryTotals) gaexport.Ordered[float64] {
	total := gaexport.Sum(ct)

	var out gaexport.Ordered[float64]
	for _, e := range ct.Entries() {
		if total <= 0 {
			out.Set(e.Label, 0)
			continue
		}
		out.Set(e.Label, round2(float64(e.Value)/float64(total)*100))
	}
	return out
}

// Ranked orders entries by count, highest first. Equal counts keep the map's
// order, so ranking an already ranked map is a no-op.
func Ranked(ct gaexport.CategoryTotals) []MetricCountResult {
	entries := ct.Entries()
	results := make([]MetricCountResult, len(entries))
	for i, e := range entries {
		results[i] = MetricCountResult{Name: e.Label, Count: e.Value}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})
	return results
}

// TopN returns the first n ranked entries; n <= 0 returns all of them.
func TopN(ct gaexport.CategoryTotals, n int) []MetricCountResult {
	ranked := Ranked(ct)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Top returns the rank 1 entry, or NotAvailable with a zero count.
func Top(ct gaexport.CategoryTotals) MetricCountResult {
	top := TopN(ct, 1)
	if len(top) == 0 {
		return MetricCountResult{Name: NotAvailable}
	}
	return top[0]
}

// toOrdered turns ranked results back into an ordered map.
func toOrdered(results []MetricCountResult) gaexport.CategoryTotals {
	var out gaexport.CategoryTotals
	for _, r := range results {
		out.Set(r.Name, r.Count)
	}
	return out
}
