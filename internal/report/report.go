// Package report renders import results and stored metrics as text tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cog-metrics/internal/aggregator"
	"github.com/pable/go-cog-metrics/internal/importer"
	"github.com/pable/go-cog-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// ShortID is the 8-character prefix used to display game IDs.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func score(v float64, observed bool) string {
	if !observed {
		return "—"
	}
	return fmt.Sprintf("%.2f", v)
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

var kindMarks = map[importer.Kind]string{
	importer.KindInfo:    " ",
	importer.KindSuccess: "✓",
	importer.KindWarning: "!",
	importer.KindError:   "✗",
}

// PrintNotification prints one import notification on a single line.
func PrintNotification(w io.Writer, n importer.Notification) {
	fmt.Fprintf(w, "%s %-11s %s\n", kindMarks[n.Kind], n.Step, n.Message)
}

// PrintImportOutcome prints the one-line outcome of an import.
func PrintImportOutcome(w io.Writer, res *importer.Result) {
	if res.Success {
		fmt.Fprintf(w, "\nImported game %s  |  %s v %s  |  %d players  |  team score %.2f\n\n",
			ShortID(res.GameID), res.Team, res.Opponent, res.PlayersProcessed, res.TeamCogScore)
		return
	}
	if n, ok := importer.Find(res.Notifications, importer.StepComplete); ok {
		fmt.Fprintf(w, "\n%s (%s)\n\n", n.Message, res.State)
		return
	}
	fmt.Fprintf(w, "\nImport failed (%s): %v\n\n", res.State, res.Err)
}

// PrintImportResult prints the notifications of an import followed by its
// outcome.
func PrintImportResult(w io.Writer, res *importer.Result) {
	for _, n := range res.Notifications {
		PrintNotification(w, n)
	}
	PrintImportOutcome(w, res)
}

// PrintGameHeader prints a one-line summary of a stored game.
func PrintGameHeader(w io.Writer, g model.Game) {
	fmt.Fprintf(w, "\nDate: %s  |  %s v %s  |  File: %s  |  ID: %s\n\n",
		g.Date, g.Team, g.Opponent, g.SourceFile, ShortID(g.ID))
}

// PrintGameList prints stored games, newest first as given.
func PrintGameList(w io.Writer, games []model.Game) {
	table := newTable(w)
	table.Header("ID", "DATE", "TEAM", "OPPONENT", "FILE", "IMPORTED")
	for _, g := range games {
		table.Append(
			ShortID(g.ID),
			g.Date,
			g.Team,
			g.Opponent,
			g.SourceFile,
			g.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	table.Render()
}

// PrintCognitiveTable prints one line per subject of a game.
// Columns: NAME | OVERALL | OBS | STRONGEST | WEAKEST | FG | 3PT | PTS
func PrintCognitiveTable(w io.Writer, recs []model.CognitiveScoreRecord) {
	table := newTable(w)
	table.Header(" ", "NAME", "OVERALL", "OBS", "STRONGEST", "WEAKEST", "FG", "3PT", "PTS")
	for _, r := range recs {
		marker := " "
		if r.SubjectKind == model.SubjectKindTeam {
			marker = "T"
		}
		observed := 0
		for _, c := range r.Categories {
			if c.Observed {
				observed++
			}
		}
		fg := "—"
		if r.Shots.Attempts > 0 {
			fg = fmt.Sprintf("%d/%d", r.Shots.Makes, r.Shots.Attempts)
		}
		three := "—"
		if r.Shots.ThreePointAttempts > 0 {
			three = fmt.Sprintf("%d/%d", r.Shots.ThreePointMakes, r.Shots.ThreePointAttempts)
		}
		table.Append(
			marker,
			r.DisplayName,
			score(r.OverallScore, r.HasObservations),
			fmt.Sprintf("%d/%d", observed, model.NumCategories),
			dash(r.Strongest),
			dash(r.Weakest),
			fg,
			three,
			strconv.Itoa(r.Shots.Points),
		)
	}
	table.Render()
}

// PrintCategoryTable prints every category score of one subject in taxonomy order.
func PrintCategoryTable(w io.Writer, r model.CognitiveScoreRecord) {
	fmt.Fprintf(w, "%s\n", r.DisplayName)
	table := newTable(w)
	table.Header("CATEGORY", "SCORE")
	for _, c := range model.Categories() {
		e := r.Categories[c.Label()]
		table.Append(c.Label(), score(e.Score, e.Observed))
	}
	table.Render()
}

// PrintStatisticsTable prints the action tally of one subject, followed by the
// polarity summary.
// Columns: CATEGORY | ACTION | COUNT | PCT | POLARITY
func PrintStatisticsTable(w io.Writer, title string, rec *model.StatisticsRecord) {
	fmt.Fprintf(w, "%s\n", title)
	if rec == nil || len(rec.Rows) == 0 {
		fmt.Fprintln(w, "  no tagged actions")
		return
	}
	table := newTable(w)
	table.Header("CATEGORY", "ACTION", "COUNT", "PCT", "POLARITY")
	prev := ""
	for _, r := range rec.Rows {
		cat := r.Category
		if cat == prev {
			cat = ""
		}
		prev = r.Category
		table.Append(
			cat,
			r.Action,
			strconv.Itoa(r.Count),
			fmt.Sprintf("%.1f%%", r.Percentage),
			r.Polarity.String(),
		)
	}
	table.Render()

	s := aggregator.Summarize(rec.Rows)
	fmt.Fprintf(w, "  positive %d  |  negative %d  |  neutral %d\n\n", s.Positive, s.Negative, s.Neutral)
}

// PrintPlayerHistory prints one player's cognitive scores across games, oldest
// first, with the change from the previous observed game.
func PrintPlayerHistory(w io.Writer, recs []model.CognitiveScoreRecord) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s  |  %d games\n\n", recs[0].DisplayName, len(recs))

	table := newTable(w)
	table.Header("DATE", "OPPONENT", "OVERALL", "Δ", "STRONGEST", "WEAKEST", "PTS")
	var (
		last    float64
		hasLast bool
	)
	for _, r := range recs {
		delta := "—"
		if r.HasObservations {
			if hasLast {
				delta = fmt.Sprintf("%+.2f", r.OverallScore-last)
			}
			last, hasLast = r.OverallScore, true
		}
		table.Append(
			r.Date,
			r.Opponent,
			score(r.OverallScore, r.HasObservations),
			delta,
			dash(r.Strongest),
			dash(r.Weakest),
			strconv.Itoa(r.Shots.Points),
		)
	}
	table.Render()
}

// trendLabels are the short column headers of the category trend table.
var trendLabels = [model.NumCategories]string{
	model.CategorySpaceRead:        "SPACE",
	model.CategoryDecisionOnCatch:  "DM_CATCH",
	model.CategoryDriving:          "DRIVE",
	model.CategoryFinishing:        "FINISH",
	model.CategoryFootwork:         "FOOT",
	model.CategoryPassing:          "PASS",
	model.CategoryPositioning:      "POS",
	model.CategoryRelocation:       "RELOC",
	model.CategoryCuttingScreening: "CUT_SCR",
	model.CategoryTransition:       "TRANS",
	model.CategoryQBDecisionMaking: "QB_DM",
}

// PrintCategoryTrend prints one row per game with every category score.
// Unobserved categories show as "—".
func PrintCategoryTrend(w io.Writer, recs []model.CognitiveScoreRecord) {
	table := newTable(w)
	header := []any{"DATE", "OPP"}
	for _, l := range trendLabels {
		header = append(header, l)
	}
	table.Header(header...)
	for _, r := range recs {
		row := []any{r.Date, r.Opponent}
		for _, c := range model.Categories() {
			e := r.Categories[c.Label()]
			row = append(row, score(e.Score, e.Observed))
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintCategoryHistory prints one category's score per game with the change
// from the previous game where it was observed.
func PrintCategoryHistory(w io.Writer, cat model.Category, recs []model.CognitiveScoreRecord) {
	fmt.Fprintf(w, "%s\n", cat.Label())
	table := newTable(w)
	table.Header("DATE", "OPP", "SCORE", "Δ")
	var (
		last    float64
		hasLast bool
	)
	for _, r := range recs {
		e := r.Categories[cat.Label()]
		delta := "—"
		if e.Observed {
			if hasLast {
				delta = fmt.Sprintf("%+.2f", e.Score-last)
			}
			last, hasLast = e.Score, true
		}
		table.Append(r.Date, r.Opponent, score(e.Score, e.Observed), delta)
	}
	table.Render()
}

// PrintPlayers prints every known player.
func PrintPlayers(w io.Writer, players []model.Player) {
	table := newTable(w)
	table.Header("NAME", "KEY", "FIRST SEEN")
	for _, p := range players {
		table.Append(p.DisplayName, p.Key, p.CreatedAt.Local().Format("2006-01-02"))
	}
	table.Render()
}

// PrintQuery prints the result of a raw SQL query.
func PrintQuery(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}
