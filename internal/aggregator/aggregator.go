// Package aggregator flattens a subset's category columns into a tally of
// action labels with counts, percentages, and polarity.
package aggregator

import (
	"sort"

	"github.com/pable/go-cog-metrics/internal/model"
)

// Tally counts the distinct action labels of every category column present
// in s. A label is a whole trimmed cell value, so each row contributes at most
// one label per category and the percentages of one category never sum past
// 100. Percentages are truncated to 2 decimals and are relative to the number
// of rows in s.
//
// Rows are sorted by category label, then count descending, then action label.
func Tally(s *model.Subset, markers model.Markers) []model.StatRow {
	total := len(s.Rows)
	if total == 0 {
		return nil
	}

	var out []model.StatRow
	for _, cat := range model.Categories() {
		if !s.Has(model.CategoryColumn(cat)) {
			continue
		}
		counts := make(map[string]int)
		var order []string
		for _, r := range s.Rows {
			label := model.CollapseSpace(r.Categories[cat])
			if label == "" {
				continue
			}
			if counts[label] == 0 {
				order = append(order, label)
			}
			counts[label]++
		}
		for _, label := range order {
			n := counts[label]
			out = append(out, model.StatRow{
				Category:   cat.Label(),
				Action:     label,
				Count:      n,
				Percentage: percent(n, total),
				Polarity:   markers.Polarity(label),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// percent is 100*n/total truncated to 2 decimals. Truncating keeps the sum of
// a category's percentages at or below 100 where rounding could push it over.
func percent(n, total int) float64 {
	return float64(10000*n/total) / 100
}

// Summary is the per-polarity breakdown of a tally.
type Summary struct {
	Positive int
	Negative int
	Neutral  int
}

// Summarize totals the counts of rows by polarity.
func Summarize(rows []model.StatRow) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Polarity {
		case model.PolarityPositive:
			s.Positive += r.Count
		case model.PolarityNegative:
			s.Negative += r.Count
		default:
			s.Neutral += r.Count
		}
	}
	return s
}
