package model

import "strings"

// Polarity classifies an observed action label.
type Polarity int

const (
	PolarityNeutral  Polarity = 0
	PolarityPositive Polarity = 1
	PolarityNegative Polarity = 2
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "Positive"
	case PolarityNegative:
		return "Negative"
	default:
		return "Neutral"
	}
}

// ParsePolarity is the inverse of Polarity.String.
func ParsePolarity(s string) Polarity {
	switch s {
	case "Positive":
		return PolarityPositive
	case "Negative":
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// Markers are the substrings that flag a tag as positive or negative.
// Matching is case-insensitive. A tag ending in "+" or "-" is also flagged.
type Markers struct {
	Positive []string
	Negative []string
}

// DefaultMarkers matches tags like "Good Read (+)", "Late Rotation -ve" or
// "Drive Positive".
func DefaultMarkers() Markers {
	return Markers{
		Positive: []string{"(+)", "+ve", "positive"},
		Negative: []string{"(-)", "-ve", "negative"},
	}
}

// Classify reports whether tag carries a positive and/or a negative marker.
func (m Markers) Classify(tag string) (positive, negative bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return false, false
	}
	positive = strings.HasSuffix(t, "+") || containsAny(t, m.Positive)
	negative = strings.HasSuffix(t, "-") || containsAny(t, m.Negative)
	return positive, negative
}

// Polarity classifies a label; positive wins when both markers are present.
func (m Markers) Polarity(label string) Polarity {
	pos, neg := m.Classify(label)
	switch {
	case pos:
		return PolarityPositive
	case neg:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

func containsAny(s string, markers []string) bool {
	for _, mk := range markers {
		if mk == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(mk)) {
			return true
		}
	}
	return false
}

// SplitTags splits a multi-tag cell on commas and drops empty tags.
func SplitTags(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
