package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/model"
	"github.com/pable/go-cog-metrics/internal/report"
	"github.com/pable/go-cog-metrics/internal/storage"
)

var (
	showStats      bool
	showCategories bool
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a stored game's cognitive scores by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showStats, "stats", false, "also print the action tallies of every subject")
	showCmd.Flags().BoolVar(&showCategories, "categories", false, "also print per-category scores of every subject")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return showGame(os.Stdout, db, args[0], showCategories, showStats)
}

// findGame resolves an id prefix to a stored game.
func findGame(db *storage.DB, prefix string) (*model.Game, error) {
	g, err := db.GetGameByPrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("no game found with id prefix %q", prefix)
	}
	return g, nil
}

func showGame(w io.Writer, db *storage.DB, prefix string, categories, stats bool) error {
	g, err := findGame(db, prefix)
	if err != nil {
		return err
	}
	recs, err := db.GetCognitiveScores(g.ID)
	if err != nil {
		return fmt.Errorf("get cognitive scores: %w", err)
	}

	report.PrintGameHeader(w, *g)
	report.PrintCognitiveTable(w, recs)

	if categories {
		for _, r := range recs {
			fmt.Fprintln(w)
			report.PrintCategoryTable(w, r)
		}
	}
	if stats {
		for _, r := range recs {
			st, err := db.GetStatistics(g.ID, r.SubjectKind, r.Subject)
			if err != nil {
				return fmt.Errorf("get statistics for %s: %w", r.DisplayName, err)
			}
			fmt.Fprintln(w)
			report.PrintStatisticsTable(w, r.DisplayName, st)
		}
	}
	return nil
}
