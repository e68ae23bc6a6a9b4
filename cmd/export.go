package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/model"
	"github.com/pable/go-cog-metrics/internal/storage"
)

var (
	exportOut   string
	exportSince string
	exportStats bool
)

// gameExport is the JSON schema of one exported game.
type gameExport struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Team       string          `json:"team"`
	Opponent   string          `json:"opponent"`
	SourceFile string          `json:"source_file"`
	ImportedAt string          `json:"imported_at"`
	Subjects   []subjectExport `json:"subjects"`
}

// subjectExport is the team or one player within an exported game.
type subjectExport struct {
	Kind       string                         `json:"kind"`
	Key        string                         `json:"key"`
	Name       string                         `json:"name"`
	Overall    float64                        `json:"overall_score"`
	Observed   bool                           `json:"has_observations"`
	Strongest  string                         `json:"strongest,omitempty"`
	Weakest    string                         `json:"weakest,omitempty"`
	Categories map[string]model.CategoryEntry `json:"categories"`
	Shots      model.ShotDistribution         `json:"shots"`
	Scorecard  *scorecardExport               `json:"scorecard,omitempty"`
	Statistics []statExport                   `json:"statistics,omitempty"`
}

type scorecardExport struct {
	Rows     int                            `json:"rows"`
	Positive int                            `json:"positive_total"`
	Negative int                            `json:"negative_total"`
	Counts   map[string]model.CategoryCount `json:"counts"`
}

type statExport struct {
	Category   string  `json:"category"`
	Action     string  `json:"action"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Polarity   string  `json:"polarity"`
}

var exportCmd = &cobra.Command{
	Use:   "export [<id-prefix>]",
	Short: "Export stored games as JSON",
	Long: `Export one game (by id prefix) or every stored game as a JSON array.
Each game lists the team and every player with their cognitive scores,
shot distribution, and raw scorecard counts.

Example:
  cogmetrics export --since 2025-10-01 --stats --out october.json
  cogmetrics export 0f3c2a9e`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only games on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().BoolVar(&exportStats, "stats", false, "include action tallies")
}

func runExport(_ *cobra.Command, args []string) error {
	if exportSince != "" {
		if _, err := time.Parse("2006-01-02", exportSince); err != nil {
			return fmt.Errorf("invalid --since %q: want YYYY-MM-DD", exportSince)
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var games []model.Game
	if len(args) == 1 {
		g, err := findGame(db, args[0])
		if err != nil {
			return err
		}
		games = []model.Game{*g}
	} else {
		all, err := db.ListGames()
		if err != nil {
			return fmt.Errorf("list games: %w", err)
		}
		for _, g := range all {
			if exportSince == "" || g.Date >= exportSince {
				games = append(games, g)
			}
		}
	}

	docs := make([]gameExport, 0, len(games))
	for _, g := range games {
		doc, err := buildGameExport(db, g, exportStats)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Exported %d games to %s\n", len(docs), exportOut)
	}
	return nil
}

func buildGameExport(db *storage.DB, g model.Game, withStats bool) (gameExport, error) {
	doc := gameExport{
		ID:         g.ID,
		Date:       g.Date,
		Team:       g.Team,
		Opponent:   g.Opponent,
		SourceFile: g.SourceFile,
		ImportedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}

	recs, err := db.GetCognitiveScores(g.ID)
	if err != nil {
		return doc, fmt.Errorf("cognitive scores for %s: %w", g.ID, err)
	}
	cards, err := db.GetScorecards(g.ID)
	if err != nil {
		return doc, fmt.Errorf("scorecards for %s: %w", g.ID, err)
	}
	byPlayer := make(map[string]model.Scorecard, len(cards))
	for _, c := range cards {
		byPlayer[c.PlayerKey] = c
	}

	for _, r := range recs {
		s := subjectExport{
			Kind:       r.SubjectKind.String(),
			Key:        r.Subject,
			Name:       r.DisplayName,
			Overall:    r.OverallScore,
			Observed:   r.HasObservations,
			Strongest:  r.Strongest,
			Weakest:    r.Weakest,
			Categories: r.Categories,
			Shots:      r.Shots,
		}
		if c, ok := byPlayer[r.Subject]; ok && r.SubjectKind == model.SubjectKindPlayer {
			s.Scorecard = &scorecardExport{Rows: c.Rows, Positive: c.PositiveTotal, Negative: c.NegativeTotal, Counts: c.Counts}
		}
		if withStats {
			st, err := db.GetStatistics(g.ID, r.SubjectKind, r.Subject)
			if err != nil {
				return doc, fmt.Errorf("statistics for %s: %w", r.DisplayName, err)
			}
			for _, row := range st.Rows {
				s.Statistics = append(s.Statistics, statExport{
					Category:   row.Category,
					Action:     row.Action,
					Count:      row.Count,
					Percentage: row.Percentage,
					Polarity:   row.Polarity.String(),
				})
			}
		}
		doc.Subjects = append(doc.Subjects, s)
	}
	return doc, nil
}
