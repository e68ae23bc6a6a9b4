package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/report"
	"github.com/pable/go-cog-metrics/internal/storage"
)

// playerCmd prints one or more players' cognitive scores across games.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Cross-game cognitive history for one or more players",
	Long: `Print each player's cognitive score in every stored game, oldest first.
Names are matched case-insensitively with whitespace collapsed, so
"jimmy butler" finds "Jimmy Butler". Quote names that contain spaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List every player seen in any game",
	Args:  cobra.NoArgs,
	RunE:  runPlayers,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, name := range args {
		if err := playerHistory(os.Stdout, db, name); err != nil {
			return err
		}
	}
	return nil
}

func playerHistory(w io.Writer, db *storage.DB, name string) error {
	recs, err := db.GetPlayerHistory(name)
	if err != nil {
		return fmt.Errorf("query history for %q: %w", name, err)
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "No data found for player %q\n", name)
		return nil
	}
	report.PrintPlayerHistory(w, recs)
	return nil
}

func runPlayers(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	players, err := db.ListPlayers()
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintln(os.Stdout, "No players stored yet.")
		return nil
	}
	report.PrintPlayers(os.Stdout, players)
	return nil
}
