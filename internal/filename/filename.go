// Package filename extracts game metadata from mega-file names of the form
// "MM.DD.YY <TEAM> v <OPPONENT>.csv" and derives the stable game identifier.
package filename

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-cog-metrics/internal/model"
)

// gameNamespace scopes the name-based game UUIDs to this project.
var gameNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9c21-4e5d2b7f0a13")

// The separator must be surrounded by whitespace so team names containing
// "at" or "v" are not split.
var namePattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2})\s+(.+?)\s+(?i:vs\.?|v\.?|@|at)\s+(.+?)$`)

// knownExts are stripped before matching, after any ".gz" or ".zst" suffix. Anything else after a dot is kept
// as part of the opponent name (e.g. "St. Louis").
var knownExts = map[string]bool{".csv": true, ".txt": true, ".tsv": true, ".xml": true}

// Parse extracts date, team and opponent from name. Directory components are
// ignored. It returns an error wrapping model.ErrParse when the name does not
// follow the contract.
func Parse(name string) (model.GameMeta, error) {
	base := strings.TrimSpace(filepath.Base(name))
	if ext := strings.ToLower(filepath.Ext(base)); ext == ".gz" || ext == ".zst" {
		base = base[:len(base)-len(ext)]
	}
	if ext := filepath.Ext(base); knownExts[strings.ToLower(ext)] {
		base = strings.TrimSuffix(base, ext)
	}

	m := namePattern.FindStringSubmatch(base)
	if m == nil {
		return model.GameMeta{}, fmt.Errorf("%w: %q does not match \"MM.DD.YY TEAM v OPPONENT\"", model.ErrParse, name)
	}

	datePart := pad2(m[1]) + "." + pad2(m[2]) + "." + m[3]
	date, err := time.Parse("01.02.06", datePart)
	if err != nil {
		return model.GameMeta{}, fmt.Errorf("%w: invalid date %q in %q", model.ErrParse, datePart, name)
	}

	team := model.CollapseSpace(m[4])
	opponent := model.CollapseSpace(m[5])
	if team == "" || opponent == "" {
		return model.GameMeta{}, fmt.Errorf("%w: empty team or opponent in %q", model.ErrParse, name)
	}
	return model.GameMeta{Date: date, Team: team, Opponent: opponent}, nil
}

// GameID derives the game identifier from (date, opponent). It is a UUIDv5 over
// the ISO date and the normalized opponent, so it never depends on the clock,
// on the team spelling, or on the opponent's case and spacing.
func GameID(date time.Time, opponent string) string {
	key := date.Format("2006-01-02") + "|" + model.NormalizeKey(opponent)
	return uuid.NewSHA1(gameNamespace, []byte(key)).String()
}

// MetaGameID is GameID applied to parsed metadata.
func MetaGameID(meta model.GameMeta) string {
	return GameID(meta.Date, meta.Opponent)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
