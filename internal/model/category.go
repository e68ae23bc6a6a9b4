package model

import "strings"

// Category is one of the fixed cognitive-skill taxonomy entries.
type Category int

const (
	CategorySpaceRead Category = iota
	CategoryDecisionOnCatch
	CategoryDriving
	CategoryFinishing
	CategoryFootwork
	CategoryPassing
	CategoryPositioning
	CategoryRelocation
	CategoryCuttingScreening
	CategoryTransition
	CategoryQBDecisionMaking

	NumCategories = 11
)

type categoryInfo struct {
	label   string
	column  string
	aliases []string
}

var categoryTable = [NumCategories]categoryInfo{
	CategorySpaceRead:        {"Space Read", "Space Read", []string{"space_read", "spaceread"}},
	CategoryDecisionOnCatch:  {"Decision-on-Catch", "DM Catch", []string{"decision on catch", "decision-on-catch", "dm_catch"}},
	CategoryDriving:          {"Driving", "Driving", []string{"drive", "drives"}},
	CategoryFinishing:        {"Finishing", "Finishing", []string{"finish"}},
	CategoryFootwork:         {"Footwork", "Footwork", []string{"foot work"}},
	CategoryPassing:          {"Passing", "Passing", []string{"pass", "passes"}},
	CategoryPositioning:      {"Positioning", "Positioning", []string{"position"}},
	CategoryRelocation:       {"Relocation", "Relocation", []string{"relocate"}},
	CategoryCuttingScreening: {"Cutting&Screening", "Cutting & Screening", []string{"cutting&screening", "cutting and screening", "cutting/screening"}},
	CategoryTransition:       {"Transition", "Transition", []string{"trans"}},
	CategoryQBDecisionMaking: {"Quarterback-style Decision-Making", "QB12 DM", []string{"qb12", "qb dm", "quarterback decision making", "quarterback-style decision-making"}},
}

// Categories returns the taxonomy in its fixed order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Label is the human-readable category name used in persisted maps.
func (c Category) Label() string {
	if c < 0 || int(c) >= NumCategories {
		return "?"
	}
	return categoryTable[c].label
}

// ColumnName is the canonical CSV header for the category.
func (c Category) ColumnName() string {
	if c < 0 || int(c) >= NumCategories {
		return ""
	}
	return categoryTable[c].column
}

func (c Category) String() string { return c.Label() }

// CategoryByLabel finds a category by its label, case-insensitively.
func CategoryByLabel(label string) (Category, bool) {
	for i, info := range categoryTable {
		if strings.EqualFold(info.label, label) {
			return Category(i), true
		}
	}
	return 0, false
}

// MatchCategoryHeader resolves a CSV header to a category. The canonical column
// name, the label, and the listed aliases are all accepted.
func MatchCategoryHeader(header string) (Category, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for i, info := range categoryTable {
		if h == strings.ToLower(info.column) || h == strings.ToLower(info.label) {
			return Category(i), true
		}
		for _, a := range info.aliases {
			if h == a {
				return Category(i), true
			}
		}
	}
	return 0, false
}
