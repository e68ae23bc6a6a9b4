package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/model"
)

const analyzeSystemPrompt = `You are a basketball player-development analyst. You are given structured
cognitive-performance data produced from tagged game film and a question from a coach.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the player or team can practise.
- Avoid generic coaching advice unless it directly explains a pattern in the data.

Metrics glossary:
- Category score: 100 * positive / (positive + negative) tags in that category. 0-100.
- observed=false: no tags were recorded for the category in that game; its score is not meaningful.
- Overall: mean of the observed category scores.
- Strongest / weakest: highest / lowest observed category.
- Categories: Space Read, Decision-on-Catch, Driving, Finishing, Footwork, Passing,
  Positioning, Relocation, Cutting&Screening, Transition, Quarterback-style Decision-Making.
- Shots: attempts, makes, three-point attempts/makes, points, field-goal %.`

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeLast   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's cognitive history with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeGameCmd = &cobra.Command{
	Use:   "game <id-prefix> <question>",
	Short: "Analyze a single game with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeGame,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzePlayerCmd.Flags().IntVar(&analyzeLast, "last", 0, "only use the N most recent games")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeGameCmd)
}

// subjectContext is the compact per-game view sent to the model.
type subjectContext struct {
	Date       string                         `json:"date,omitempty"`
	Opponent   string                         `json:"opponent,omitempty"`
	Name       string                         `json:"name,omitempty"`
	Kind       string                         `json:"kind,omitempty"`
	Overall    float64                        `json:"overall"`
	Observed   bool                           `json:"has_observations"`
	Strongest  string                         `json:"strongest,omitempty"`
	Weakest    string                         `json:"weakest,omitempty"`
	Categories map[string]model.CategoryEntry `json:"categories"`
	Shots      model.ShotDistribution         `json:"shots"`
}

func toContext(r model.CognitiveScoreRecord, withGame bool) subjectContext {
	c := subjectContext{
		Overall:    r.OverallScore,
		Observed:   r.HasObservations,
		Strongest:  r.Strongest,
		Weakest:    r.Weakest,
		Categories: r.Categories,
		Shots:      r.Shots,
	}
	if withGame {
		c.Date, c.Opponent = r.Date, r.Opponent
	} else {
		c.Name, c.Kind = r.DisplayName, r.SubjectKind.String()
	}
	return c
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.GetPlayerHistory(args[0])
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if analyzeLast > 0 && len(recs) > analyzeLast {
		recs = recs[len(recs)-analyzeLast:]
	}
	if len(recs) == 0 {
		return fmt.Errorf("no data found for player %q", args[0])
	}

	games := make([]subjectContext, len(recs))
	for i, r := range recs {
		games[i] = toContext(r, true)
	}
	doc := map[string]any{
		"subject":        "player",
		"player":         recs[0].DisplayName,
		"games_analyzed": len(recs),
		"games":          games,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, string(b), args[1])
}

func runAnalyzeGame(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	g, err := findGame(db, args[0])
	if err != nil {
		return err
	}
	recs, err := db.GetCognitiveScores(g.ID)
	if err != nil {
		return fmt.Errorf("query cognitive scores: %w", err)
	}

	subjects := make([]subjectContext, len(recs))
	for i, r := range recs {
		subjects[i] = toContext(r, false)
	}
	doc := map[string]any{
		"subject":  "game",
		"date":     g.Date,
		"team":     g.Team,
		"opponent": g.Opponent,
		"subjects": subjects,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, string(b), args[1])
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	log.WithField("model", modelID).Debug("requesting analysis")

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
