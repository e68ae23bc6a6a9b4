// Package model holds the domain types shared by the ingestion pipeline:
// game metadata, typed table rows, entity subsets, cognitive scores,
// statistics tallies, and the batch of records committed per import.
package model

import "time"

// SubjectTeam is the subject key used for team-level records.
const SubjectTeam = "team"

// SubjectKind distinguishes team records from player records.
type SubjectKind int

const (
	SubjectKindTeam   SubjectKind = 0
	SubjectKindPlayer SubjectKind = 1
)

func (k SubjectKind) String() string {
	switch k {
	case SubjectKindTeam:
		return "team"
	case SubjectKindPlayer:
		return "player"
	default:
		return "?"
	}
}

// ParseSubjectKind is the inverse of SubjectKind.String.
func ParseSubjectKind(s string) SubjectKind {
	if s == "player" {
		return SubjectKindPlayer
	}
	return SubjectKindTeam
}

// GameMeta is what the filename tells us about a game.
type GameMeta struct {
	Date     time.Time
	Team     string
	Opponent string
}

// DateString formats the game date as YYYY-MM-DD.
func (m GameMeta) DateString() string {
	return m.Date.Format("2006-01-02")
}

// ---- Table rows ----

// Row is one line of the mega file. Optional columns that are absent from the
// file are left empty; Table.Has reports which columns were present.
type Row struct {
	Line  int // 1-based CSV line number, header is line 1
	Group string

	Timeline       string
	StartTime      string
	Duration       string
	InstanceNumber string

	Categories [NumCategories]string

	ShotLocation string
	ShotOutcome  string
	ShotSpecific string
}

// Column identifies a known column of the mega file.
type Column int

const (
	ColumnGroup Column = iota
	ColumnTimeline
	ColumnStartTime
	ColumnDuration
	ColumnInstance
	ColumnShotLocation
	ColumnShotOutcome
	ColumnShotSpecific
	// category columns follow, offset by ColumnCategoryBase
	ColumnCategoryBase
)

// CategoryColumn returns the Column for the given category.
func CategoryColumn(c Category) Column {
	return ColumnCategoryBase + Column(c)
}

// Subset is the set of rows that belong to one entity, team or player.
type Subset struct {
	Kind SubjectKind
	Key  string // SubjectTeam or the normalized player name
	Name string // display name
	Rows []Row

	// Present reports which columns existed in the source table.
	Present func(Column) bool
}

// Has reports whether column c was present in the source table.
func (s *Subset) Has(c Column) bool {
	if s.Present == nil {
		return true
	}
	return s.Present(c)
}

// ---- Scoring ----

// CategoryScore is the positive/negative tally for one category.
type CategoryScore struct {
	Category Category
	Positive int
	Negative int
	Score    float64 // 0 when !Observed
	Observed bool
}

// Observations is Positive + Negative.
func (c CategoryScore) Observations() int {
	return c.Positive + c.Negative
}

// ShotDistribution summarises the shot columns of a subset.
type ShotDistribution struct {
	Attempts           int            `json:"attempts"`
	Makes              int            `json:"makes"`
	ThreePointAttempts int            `json:"three_point_attempts"`
	ThreePointMakes    int            `json:"three_point_makes"`
	Points             int            `json:"points"`
	FieldGoalPct       float64        `json:"field_goal_pct"`
	ByLocation         map[string]int `json:"by_location"`
	ByOutcome          map[string]int `json:"by_outcome"`
	ByType             map[string]int `json:"by_type"`
}

// CognitiveScore is the computed result for one subset.
type CognitiveScore struct {
	Overall         float64
	HasObservations bool
	Categories      []CategoryScore // always NumCategories entries, taxonomy order
	Strongest       string          // empty when nothing was observed
	Weakest         string
	Shots           ShotDistribution
}

// Category returns the score entry for c.
func (s CognitiveScore) Category(c Category) CategoryScore {
	for _, cs := range s.Categories {
		if cs.Category == c {
			return cs
		}
	}
	return CategoryScore{Category: c}
}

// StatRow is one line of a statistics tally.
type StatRow struct {
	Category   string
	Action     string
	Count      int
	Percentage float64
	Polarity   Polarity
}

// ---- Persisted records ----

// Game is the persisted game record.
type Game struct {
	ID         string
	Date       string // YYYY-MM-DD
	Team       string
	Opponent   string
	SourceFile string
	CreatedAt  time.Time
}

// Player is the persisted player record.
type Player struct {
	Key         string // normalized name, primary key
	DisplayName string
	CreatedAt   time.Time
}

// CategoryCount is the raw tally stored on a scorecard.
type CategoryCount struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Scorecard is one player's raw counts for one game.
type Scorecard struct {
	GameID        string
	PlayerKey     string
	Rows          int
	PositiveTotal int
	NegativeTotal int
	Counts        map[string]CategoryCount // keyed by category label
}

// CategoryEntry is one value of the persisted per-category score map.
type CategoryEntry struct {
	Score    float64 `json:"score"`
	Observed bool    `json:"observed"`
}

// CognitiveScoreRecord is the persisted cognitive score for one subject.
type CognitiveScoreRecord struct {
	GameID          string
	Subject         string
	SubjectKind     SubjectKind
	DisplayName     string
	OverallScore    float64
	HasObservations bool
	Categories      map[string]CategoryEntry // keyed by category label
	Strongest       string
	Weakest         string
	Shots           ShotDistribution

	// Date is populated on cross-game queries.
	Date     string
	Opponent string
}

// StatisticsRecord is the persisted statistics tally for one subject.
type StatisticsRecord struct {
	GameID      string
	Subject     string
	SubjectKind SubjectKind
	Rows        []StatRow
}

// ImportBatch is everything one import commits. It is written atomically.
type ImportBatch struct {
	Game            Game
	Players         []Player
	Scorecards      []Scorecard
	CognitiveScores []CognitiveScoreRecord
	Statistics      []StatisticsRecord
}

// NewCognitiveScoreRecord flattens a CognitiveScore into its persisted form.
func NewCognitiveScoreRecord(gameID string, s *Subset, cs CognitiveScore) CognitiveScoreRecord {
	cats := make(map[string]CategoryEntry, len(cs.Categories))
	for _, c := range cs.Categories {
		cats[c.Category.Label()] = CategoryEntry{Score: c.Score, Observed: c.Observed}
	}
	return CognitiveScoreRecord{
		GameID:          gameID,
		Subject:         s.Key,
		SubjectKind:     s.Kind,
		DisplayName:     s.Name,
		OverallScore:    cs.Overall,
		HasObservations: cs.HasObservations,
		Categories:      cats,
		Strongest:       cs.Strongest,
		Weakest:         cs.Weakest,
		Shots:           cs.Shots,
	}
}

// NewScorecard builds the raw-count scorecard for a player subset.
func NewScorecard(gameID string, s *Subset, cs CognitiveScore) Scorecard {
	sc := Scorecard{
		GameID:    gameID,
		PlayerKey: s.Key,
		Rows:      len(s.Rows),
		Counts:    make(map[string]CategoryCount, len(cs.Categories)),
	}
	for _, c := range cs.Categories {
		sc.Counts[c.Category.Label()] = CategoryCount{Positive: c.Positive, Negative: c.Negative}
		sc.PositiveTotal += c.Positive
		sc.NegativeTotal += c.Negative
	}
	return sc
}
