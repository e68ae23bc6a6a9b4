package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/importer"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/report"
	"github.com/pable/go-cog-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cOK       = color.New(color.FgGreen)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	im := newImporter(db, shellNotify)

	cGreeting.Println("cogmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cogmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <id-prefix> [--stats] [--categories]")
				continue
			}
			var stats, cats bool
			for _, a := range args[1:] {
				switch a {
				case "--stats":
					stats = true
				case "--categories":
					cats = true
				}
			}
			if err := showGame(os.Stdout, db, args[0], cats, stats); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case "player":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: player <name>")
				continue
			}
			if err := playerHistory(os.Stdout, db, rest); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case "players":
			shellPlayers(db)
		case "import":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: import <file.csv>")
				continue
			}
			res := im.Run(loader.FileSource(rest))
			report.PrintImportOutcome(os.Stdout, res)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellNotify(n importer.Notification) {
	c := cMuted
	switch n.Kind {
	case importer.KindSuccess:
		c = cOK
	case importer.KindWarning:
		c = cWarn
	case importer.KindError:
		c = cError
	}
	c.Fprintf(os.Stdout, "  %-11s %s\n", n.Step, n.Message)
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored games"},
		{"show <id-prefix>", "show a game's cognitive scores"},
		{"show <id-prefix> --stats --categories", "same, with action tallies and category scores"},
		{"player <name>", "cross-game history for one player"},
		{"players", "list every known player"},
		{"import <file.csv>", "import one mega file"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-40s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB) {
	games, err := db.ListGames()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(games) == 0 {
		cMuted.Println("No games stored yet.")
		return
	}
	report.PrintGameList(os.Stdout, games)
}

func shellPlayers(db *storage.DB) {
	players, err := db.ListPlayers()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(players) == 0 {
		cMuted.Println("No players stored yet.")
		return
	}
	report.PrintPlayers(os.Stdout, players)
}
