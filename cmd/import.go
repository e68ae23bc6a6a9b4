package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/importer"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/report"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import <file.csv> [<file.csv>...]",
	Short: "Import mega files and store cognitive metrics",
	Long: `Import one or more mega files named "MM.DD.YY TEAM v OPPONENT.csv".
Files may be gzip (.csv.gz) or zstd (.csv.zst) compressed.

Each file is validated, split into team and player subsets, scored, and
committed in a single transaction. A game that is already stored is
rejected as a duplicate. The command exits non-zero if any import fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print results as JSON instead of progress lines")
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var notify func(importer.Notification)
	if !importJSON {
		notify = func(n importer.Notification) { report.PrintNotification(os.Stdout, n) }
	}
	im := newImporter(db, notify)

	var (
		results []*importer.Result
		failed  int
	)
	for _, path := range args {
		res := im.Run(loader.FileSource(path))
		results = append(results, res)
		if !res.Success {
			failed++
		}
		if !importJSON {
			report.PrintImportOutcome(os.Stdout, res)
		}
	}

	if importJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}
