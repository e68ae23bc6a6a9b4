package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey returns the identity key for a player or opponent name:
// NFC-normalized, case-folded, trimmed, inner whitespace collapsed.
func NormalizeKey(name string) string {
	return cases.Fold().String(norm.NFC.String(CollapseSpace(name)))
}

// CollapseSpace trims s and replaces runs of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
