package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cog-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var created = time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)

// makeBatch builds a complete batch for one game with the given players.
func makeBatch(gameID, date, opponent string, players ...string) *model.ImportBatch {
	b := &model.ImportBatch{
		Game: model.Game{ID: gameID, Date: date, Team: "MIA", Opponent: opponent, SourceFile: "f.csv", CreatedAt: created},
	}
	b.CognitiveScores = append(b.CognitiveScores, model.CognitiveScoreRecord{
		GameID: gameID, Subject: model.SubjectTeam, SubjectKind: model.SubjectKindTeam, DisplayName: "MIA",
		OverallScore: 62.5, HasObservations: true,
		Categories: map[string]model.CategoryEntry{"Passing": {Score: 62.5, Observed: true}, "Driving": {}},
		Strongest:  "Passing", Weakest: "Passing",
		Shots: model.ShotDistribution{Attempts: 4, Makes: 2, Points: 5, ByLocation: map[string]int{"Paint": 3}},
	})
	b.Statistics = append(b.Statistics, model.StatisticsRecord{
		GameID: gameID, Subject: model.SubjectTeam, SubjectKind: model.SubjectKindTeam,
		Rows: []model.StatRow{
			{Category: "Passing", Action: "Skip (+)", Count: 5, Percentage: 62.5, Polarity: model.PolarityPositive},
			{Category: "Passing", Action: "TO (-)", Count: 3, Percentage: 37.5, Polarity: model.PolarityNegative},
		},
	})
	for _, name := range players {
		key := model.NormalizeKey(name)
		b.Players = append(b.Players, model.Player{Key: key, DisplayName: name, CreatedAt: created})
		b.Scorecards = append(b.Scorecards, model.Scorecard{
			GameID: gameID, PlayerKey: key, Rows: 3, PositiveTotal: 2, NegativeTotal: 1,
			Counts: map[string]model.CategoryCount{"Passing": {Positive: 2, Negative: 1}},
		})
		b.CognitiveScores = append(b.CognitiveScores, model.CognitiveScoreRecord{
			GameID: gameID, Subject: key, SubjectKind: model.SubjectKindPlayer, DisplayName: name,
			OverallScore: 66.67, HasObservations: true,
			Categories: map[string]model.CategoryEntry{"Passing": {Score: 66.67, Observed: true}},
			Strongest:  "Passing", Weakest: "Passing",
		})
	}
	return b
}

func TestCommitImportAndExists(t *testing.T) {
	db := openMemDB(t)

	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler", "Bam Adebayo")))

	exists, err := db.GameExists("g1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists2, _ := db.GameExists("nonexistent")
	assert.False(t, exists2)

	c, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, Counts{Games: 1, Players: 2, Scorecards: 2, CognitiveScores: 3, Statistics: 2}, c)
}

func TestCommitImportRoundTrip(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))

	recs, err := db.GetCognitiveScores("g1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	team := recs[0]
	assert.Equal(t, model.SubjectKindTeam, team.SubjectKind)
	assert.Equal(t, 62.5, team.OverallScore)
	assert.True(t, team.Categories["Passing"].Observed)
	assert.False(t, team.Categories["Driving"].Observed)
	assert.Equal(t, 3, team.Shots.ByLocation["Paint"])
	assert.Equal(t, "2025-10-12", team.Date)
	assert.Equal(t, "ORL", team.Opponent)

	player := recs[1]
	assert.Equal(t, "jimmy butler", player.Subject)
	assert.Equal(t, "Jimmy Butler", player.DisplayName)
	assert.Equal(t, 66.67, player.OverallScore)

	stats, err := db.GetStatistics("g1", model.SubjectKindTeam, model.SubjectTeam)
	require.NoError(t, err)
	require.Len(t, stats.Rows, 2)
	assert.Equal(t, "Skip (+)", stats.Rows[0].Action)
	assert.Equal(t, model.PolarityNegative, stats.Rows[1].Polarity)

	cards, err := db.GetScorecards("g1")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, model.CategoryCount{Positive: 2, Negative: 1}, cards[0].Counts["Passing"])
}

func TestCommitImportDuplicateDateOpponent(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))

	// Same game under a different id and spelling: the unique key still holds.
	err := db.CommitImport(makeBatch("g2", "2025-10-12", "  orl ", "Bam Adebayo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPersistence))
	assert.True(t, errors.Is(err, model.ErrDuplicate))

	// Same id.
	err = db.CommitImport(makeBatch("g1", "2025-10-12", "ORL"))
	assert.True(t, errors.Is(err, model.ErrDuplicate), "got %v", err)

	c, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, c.Games)
	assert.Equal(t, 1, c.Players, "rejected batch must not leave its players behind")
}

func TestCommitImportRollsBackEverything(t *testing.T) {
	db := openMemDB(t)

	b := makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler", "Bam Adebayo")
	// The repeated primary key fails the last statement of the transaction.
	b.Statistics = append(b.Statistics, b.Statistics[0])

	err := db.CommitImport(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPersistence))
	assert.False(t, errors.Is(err, model.ErrDuplicate))

	c, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)
}

func TestCommitImportRejectsOrphanScorecard(t *testing.T) {
	db := openMemDB(t)

	b := makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")
	b.Players = nil // scorecard now references a player that does not exist

	err := db.CommitImport(b)
	require.Error(t, err)
	c, _ := db.Counts()
	assert.Zero(t, c.Games)
}

func TestPlayersPersistAcrossGames(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))

	later := makeBatch("g2", "2025-10-15", "BOS", "JIMMY  butler")
	later.Players[0].CreatedAt = created.Add(72 * time.Hour)
	require.NoError(t, db.CommitImport(later))

	players, err := db.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Jimmy Butler", players[0].DisplayName, "first spelling wins")
	assert.True(t, created.Equal(players[0].CreatedAt))

	hist, err := db.GetPlayerHistory("jimmy butler")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "ORL", hist[0].Opponent)
	assert.Equal(t, "BOS", hist[1].Opponent)
}

func TestListGamesAndPrefix(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("aaaa-1", "2025-10-12", "ORL")))
	require.NoError(t, db.CommitImport(makeBatch("bbbb-2", "2025-11-01", "BOS")))

	games, err := db.ListGames()
	require.NoError(t, err)
	require.Len(t, games, 2)
	// Ordered by date DESC, BOS should be first.
	assert.Equal(t, "BOS", games[0].Opponent)
	assert.True(t, created.Equal(games[0].CreatedAt))

	g, err := db.GetGameByPrefix("aaaa")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "aaaa-1", g.ID)

	g2, err := db.GetGameByPrefix("ffff")
	require.NoError(t, err)
	assert.Nil(t, g2)

	for _, wild := range []string{"%", "_", "aa_a", "%1", ""} {
		g, err := db.GetGameByPrefix(wild)
		require.NoError(t, err, wild)
		assert.Nil(t, g, "prefix %q must match literally", wild)
	}
}

func TestDeleteGameCascades(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))

	ok, err := db.DeleteGame("g1")
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := db.Counts()
	require.NoError(t, err)
	assert.Equal(t, Counts{Players: 1}, c)

	ok, err = db.DeleteGame("g1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL")))

	cols, rows, err := db.QueryRaw("SELECT id, opponent, NULL AS n FROM games")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "opponent", "n"}, cols)
	assert.Equal(t, [][]string{{"g1", "ORL", "NULL"}}, rows)

	_, _, err = db.QueryRaw("SELECT * FROM nope")
	assert.Error(t, err)
}

func TestGetOverview(t *testing.T) {
	db := openMemDB(t)

	ov, err := db.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, Overview{}, ov)

	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))
	require.NoError(t, db.CommitImport(makeBatch("g2", "2025-10-14", "BOS", "Jimmy Butler", "Bam Adebayo")))

	ov, err = db.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Games)
	assert.Equal(t, 2, ov.Players)
	assert.Equal(t, 2, ov.Opponents)
	assert.Equal(t, "2025-10-12", ov.Earliest)
	assert.Equal(t, "2025-10-14", ov.Latest)
	assert.InDelta(t, 62.5, ov.AvgTeam, 1e-9)
}

func TestGetTopPlayers(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.CommitImport(makeBatch("g1", "2025-10-12", "ORL", "Jimmy Butler")))
	require.NoError(t, db.CommitImport(makeBatch("g2", "2025-10-14", "BOS", "Jimmy Butler", "Bam Adebayo")))

	top, err := db.GetTopPlayers(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Jimmy Butler", top[0].DisplayName)
	assert.Equal(t, 2, top[0].Games)
	assert.Equal(t, 2, top[0].Observed)
	assert.InDelta(t, 66.67, top[0].AvgOverall, 1e-9)
	assert.Equal(t, "bam adebayo", top[1].Key)

	top, err = db.GetTopPlayers(1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
