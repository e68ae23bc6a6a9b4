package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/report"
)

var (
	dropForce bool
	dropGame  string
)

// dropCmd deletes one game or the whole metrics database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete a game or the whole metrics database",
	Long: `With --game, delete one stored game and its scorecards, cognitive scores
and statistics so the file can be imported again. Players are kept.

Without --game, permanently delete the SQLite metrics database. All stored
data will be lost. Re-import your files afterwards to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropGame, "game", "", "delete only the game with this id prefix")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropGame != "" {
		return dropOneGame(dropGame)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files go with the database.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneGame(prefix string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	g, err := findGame(db, prefix)
	if err != nil {
		return err
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will delete game %s (%s v %s on %s).\n", report.ShortID(g.ID), g.Team, g.Opponent, g.Date)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if _, err := db.DeleteGame(g.ID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	log.WithField("game_id", g.ID).Info("game deleted")
	fmt.Fprintf(os.Stdout, "Deleted game %s\n", report.ShortID(g.ID))
	return nil
}
