// Package cognitive computes per-category cognitive scores and the shot
// distribution for one entity subset.
//
// A category score is 100*P/(P+N) over the positive and negative tags found in
// that category's column. Categories with no tags score 0, are flagged as not
// observed, and are left out of the overall mean and of the strongest/weakest
// selection.
package cognitive

import (
	"math"
	"strings"

	"github.com/pable/go-cog-metrics/internal/model"
)

// Calculator scores subsets using a fixed set of polarity markers.
type Calculator struct {
	markers model.Markers
}

// New returns a Calculator using markers.
func New(markers model.Markers) *Calculator {
	return &Calculator{markers: markers}
}

// Score computes the cognitive score of s.
func (c *Calculator) Score(s *model.Subset) model.CognitiveScore {
	out := model.CognitiveScore{
		Categories: make([]model.CategoryScore, 0, model.NumCategories),
	}

	var (
		sum      float64
		observed int
		best     = -1
		worst    = -1
	)
	for _, cat := range model.Categories() {
		cs := model.CategoryScore{Category: cat}
		if s.Has(model.CategoryColumn(cat)) {
			cs.Positive, cs.Negative = c.tally(s.Rows, cat)
		}
		if n := cs.Observations(); n > 0 {
			raw := CategoryScore(cs.Positive, cs.Negative)
			cs.Score = Round2(raw)
			cs.Observed = true
			sum += raw
			observed++

			idx := len(out.Categories)
			if best < 0 || cs.Score > out.Categories[best].Score {
				best = idx
			}
			if worst < 0 || cs.Score < out.Categories[worst].Score {
				worst = idx
			}
		}
		out.Categories = append(out.Categories, cs)
	}

	if observed > 0 {
		out.HasObservations = true
		out.Overall = Round2(sum / float64(observed))
		out.Strongest = out.Categories[best].Category.Label()
		out.Weakest = out.Categories[worst].Category.Label()
	}
	out.Shots = Shots(s)
	return out
}

// tally counts positive and negative tags in one category column. Each
// comma-separated tag in a cell is classified on its own; a tag carrying both
// markers counts toward both totals.
func (c *Calculator) tally(rows []model.Row, cat model.Category) (pos, neg int) {
	for _, r := range rows {
		for _, tag := range model.SplitTags(r.Categories[cat]) {
			p, n := c.markers.Classify(tag)
			if p {
				pos++
			}
			if n {
				neg++
			}
		}
	}
	return pos, neg
}

// CategoryScore is 100*pos/(pos+neg), or 0 when there are no observations.
// The result is not rounded.
func CategoryScore(pos, neg int) float64 {
	total := pos + neg
	if total <= 0 {
		return 0
	}
	return 100 * float64(pos) / float64(total)
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Shots summarises the shot columns of s.
func Shots(s *model.Subset) model.ShotDistribution {
	d := model.ShotDistribution{
		ByLocation: make(map[string]int),
		ByOutcome:  make(map[string]int),
		ByType:     make(map[string]int),
	}
	hasLoc := s.Has(model.ColumnShotLocation)
	hasOut := s.Has(model.ColumnShotOutcome)
	hasType := s.Has(model.ColumnShotSpecific)

	for _, r := range s.Rows {
		loc, res := "", ""
		if hasLoc {
			loc = r.ShotLocation
		}
		if hasOut {
			res = r.ShotOutcome
		}
		if hasType && r.ShotSpecific != "" {
			for _, tag := range model.SplitTags(r.ShotSpecific) {
				d.ByType[tag]++
			}
		}
		if loc == "" && res == "" {
			continue
		}

		d.Attempts++
		three := isThree(loc)
		if loc != "" {
			d.ByLocation[loc]++
		}
		if res != "" {
			d.ByOutcome[res]++
		}
		if three {
			d.ThreePointAttempts++
		}
		if isMake(res) {
			d.Makes++
			if three {
				d.ThreePointMakes++
				d.Points += 3
			} else {
				d.Points += 2
			}
		}
	}
	if d.Attempts > 0 {
		d.FieldGoalPct = Round2(100 * float64(d.Makes) / float64(d.Attempts))
	}
	return d
}

func isThree(loc string) bool {
	l := strings.ToLower(loc)
	return strings.Contains(l, "3") || strings.Contains(l, "three")
}

func isMake(outcome string) bool {
	o := strings.ToLower(outcome)
	if o == "" || strings.Contains(o, "miss") {
		return false
	}
	return strings.Contains(o, "make") || strings.Contains(o, "made") || strings.Contains(o, "and-1") || strings.Contains(o, "and 1")
}
