package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  games(id, date, team, opponent, opponent_key, source_file, created_at)
  players(name, display_name, created_at)
  scorecards(game_id, player_name, rows, positive_total, negative_total, raw_counts JSON)
  cognitive_scores(game_id, subject_kind, subject, display_name, overall_score,
    has_observations, category_scores JSON, strongest, weakest, shots JSON)
  statistics(game_id, subject_kind, subject, category, action, count, percentage, polarity)

Note: subject_kind is 'team' or 'player'; player subjects and players.name are
lower-cased. Use: WHERE subject = 'jimmy butler'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintQuery(os.Stdout, cols, rows)
	return nil
}
