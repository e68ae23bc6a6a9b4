package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var summaryTop int

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all games stored in the database:
game count, date range, opponents faced, average team score, and the
most active players with their average cognitive scores.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10, "number of players to list")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Games == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'cogmetrics import <file.csv>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Games stored  : %d\n", ov.Games)
	fmt.Fprintf(os.Stdout, "  Date range    : %s → %s\n", ov.Earliest, ov.Latest)
	fmt.Fprintf(os.Stdout, "  Opponents     : %d\n", ov.Opponents)
	fmt.Fprintf(os.Stdout, "  Players seen  : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Avg team score: %.2f\n", ov.AvgTeam)

	players, err := db.GetTopPlayers(summaryTop)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	pt.Header("NAME", "GAMES", "OBSERVED", "AVG", "BEST", "WORST")
	for _, p := range players {
		pt.Append(
			p.DisplayName,
			fmt.Sprintf("%d", p.Games),
			fmt.Sprintf("%d", p.Observed),
			fmt.Sprintf("%.2f", p.AvgOverall),
			fmt.Sprintf("%.2f", p.Best),
			fmt.Sprintf("%.2f", p.Worst),
		)
	}
	pt.Render()
	return nil
}
