package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/model"
	"github.com/pable/go-cog-metrics/internal/report"
)

var trendCategory string

var trendCmd = &cobra.Command{
	Use:   "trend <name>",
	Short: "Chronological per-category cognitive trend for a player",
	Long: `Print a player's overall score per game followed by every category score.
With --category, print only that category with the change between games.

Example:
  cogmetrics trend "Jimmy Butler" --category Passing`,
	Args: cobra.ExactArgs(1),
	RunE: runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendCategory, "category", "", "only show this category (e.g. \"Space Read\", \"Passing\")")
}

func runTrend(cmd *cobra.Command, args []string) error {
	var cat model.Category
	if trendCategory != "" {
		c, ok := model.CategoryByLabel(trendCategory)
		if !ok {
			return fmt.Errorf("unknown category %q", trendCategory)
		}
		cat = c
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.GetPlayerHistory(args[0])
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("no games found")
		return nil
	}

	if trendCategory != "" {
		report.PrintCategoryHistory(os.Stdout, cat, recs)
		return nil
	}
	report.PrintPlayerHistory(os.Stdout, recs)
	report.PrintCategoryTrend(os.Stdout, recs)
	return nil
}
