package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pable/go-cog-metrics/internal/model"
)

const timeLayout = time.RFC3339

// GameExists returns true if a game with the given id is already stored.
func (db *DB) GameExists(id string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM games WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CommitImport writes every record of b in one transaction. Either all rows
// are committed or none are. A game that collides with an existing
// (date, opponent) pair fails with an error wrapping both model.ErrPersistence
// and model.ErrDuplicate.
func (db *DB) CommitImport(b *model.ImportBatch) error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", model.ErrPersistence)
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %w", model.ErrPersistence, err)
	}
	defer tx.Rollback()

	if err := insertGame(tx, b.Game); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: game %s on %s: %w", model.ErrPersistence, b.Game.Opponent, b.Game.Date, model.ErrDuplicate)
		}
		return fmt.Errorf("%w: insert game: %w", model.ErrPersistence, err)
	}
	if err := upsertPlayers(tx, b.Players); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	if err := insertScorecards(tx, b.Scorecards); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	if err := insertCognitiveScores(tx, b.CognitiveScores); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	if err := insertStatistics(tx, b.Statistics); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", model.ErrPersistence, err)
	}
	return nil
}

func insertGame(tx *sql.Tx, g model.Game) error {
	_, err := tx.Exec(`
		INSERT INTO games(id, date, team, opponent, opponent_key, source_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Date, g.Team, g.Opponent, model.NormalizeKey(g.Opponent), g.SourceFile,
		g.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// upsertPlayers creates players that do not exist yet. Existing rows keep
// their original display name and creation time.
func upsertPlayers(tx *sql.Tx, players []model.Player) error {
	if len(players) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO players(name, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.Exec(p.Key, p.DisplayName, p.CreatedAt.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert player %q: %w", p.Key, err)
		}
	}
	return nil
}

func insertScorecards(tx *sql.Tx, cards []model.Scorecard) error {
	if len(cards) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO scorecards(game_id, player_name, rows, positive_total, negative_total, raw_counts)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range cards {
		counts, err := json.Marshal(c.Counts)
		if err != nil {
			return fmt.Errorf("encode scorecard %q: %w", c.PlayerKey, err)
		}
		if _, err := stmt.Exec(c.GameID, c.PlayerKey, c.Rows, c.PositiveTotal, c.NegativeTotal, string(counts)); err != nil {
			return fmt.Errorf("insert scorecard %q: %w", c.PlayerKey, err)
		}
	}
	return nil
}

func insertCognitiveScores(tx *sql.Tx, recs []model.CognitiveScoreRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO cognitive_scores(
			game_id, subject_kind, subject, display_name,
			overall_score, has_observations, category_scores,
			strongest, weakest, shots
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		cats, err := json.Marshal(r.Categories)
		if err != nil {
			return fmt.Errorf("encode categories for %q: %w", r.Subject, err)
		}
		shots, err := json.Marshal(r.Shots)
		if err != nil {
			return fmt.Errorf("encode shots for %q: %w", r.Subject, err)
		}
		_, err = stmt.Exec(
			r.GameID, r.SubjectKind.String(), r.Subject, r.DisplayName,
			r.OverallScore, boolInt(r.HasObservations), string(cats),
			r.Strongest, r.Weakest, string(shots),
		)
		if err != nil {
			return fmt.Errorf("insert cognitive score for %q: %w", r.Subject, err)
		}
	}
	return nil
}

func insertStatistics(tx *sql.Tx, recs []model.StatisticsRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO statistics(game_id, subject_kind, subject, category, action, count, percentage, polarity)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		for _, r := range rec.Rows {
			_, err := stmt.Exec(rec.GameID, rec.SubjectKind.String(), rec.Subject, r.Category, r.Action, r.Count, r.Percentage, r.Polarity.String())
			if err != nil {
				return fmt.Errorf("insert statistics %q/%s/%q: %w", rec.Subject, r.Category, r.Action, err)
			}
		}
	}
	return nil
}

// DeleteGame removes a game and, through cascading keys, its scorecards,
// cognitive scores, and statistics. Players are kept.
func (db *DB) DeleteGame(id string) (bool, error) {
	res, err := db.conn.Exec("DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListGames returns all stored games ordered by date desc.
func (db *DB) ListGames() ([]model.Game, error) {
	rows, err := db.conn.Query(`
		SELECT id, date, team, opponent, source_file, created_at
		FROM games ORDER BY date DESC, opponent`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGameByPrefix finds the first game whose id starts with the given prefix.
// The prefix is compared literally, so LIKE wildcards match nothing.
func (db *DB) GetGameByPrefix(prefix string) (*model.Game, error) {
	if prefix == "" {
		return nil, nil
	}
	row := db.conn.QueryRow(`
		SELECT id, date, team, opponent, source_file, created_at
		FROM games WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 1`, len(prefix), prefix)
	g, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (model.Game, error) {
	var g model.Game
	var created string
	if err := s.Scan(&g.ID, &g.Date, &g.Team, &g.Opponent, &g.SourceFile, &created); err != nil {
		return g, err
	}
	g.CreatedAt, _ = time.Parse(timeLayout, created)
	return g, nil
}

// GetCognitiveScores returns the team record first, then players by overall score desc.
func (db *DB) GetCognitiveScores(gameID string) ([]model.CognitiveScoreRecord, error) {
	return db.queryCognitive(`
		SELECT c.game_id, c.subject_kind, c.subject, c.display_name,
		       c.overall_score, c.has_observations, c.category_scores,
		       c.strongest, c.weakest, c.shots, g.date, g.opponent
		FROM cognitive_scores c
		JOIN games g ON g.id = c.game_id
		WHERE c.game_id = ?
		ORDER BY c.subject_kind = 'player', c.overall_score DESC, c.subject`, gameID)
}

// GetPlayerHistory returns every cognitive record for one player across games,
// oldest game first. name is normalized before matching.
func (db *DB) GetPlayerHistory(name string) ([]model.CognitiveScoreRecord, error) {
	return db.queryCognitive(`
		SELECT c.game_id, c.subject_kind, c.subject, c.display_name,
		       c.overall_score, c.has_observations, c.category_scores,
		       c.strongest, c.weakest, c.shots, g.date, g.opponent
		FROM cognitive_scores c
		JOIN games g ON g.id = c.game_id
		WHERE c.subject_kind = 'player' AND c.subject = ?
		ORDER BY g.date, g.opponent`, model.NormalizeKey(name))
}

func (db *DB) queryCognitive(query string, args ...any) ([]model.CognitiveScoreRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CognitiveScoreRecord
	for rows.Next() {
		var (
			r                 model.CognitiveScoreRecord
			kind, cats, shots string
			hasObs            int
		)
		if err := rows.Scan(
			&r.GameID, &kind, &r.Subject, &r.DisplayName,
			&r.OverallScore, &hasObs, &cats,
			&r.Strongest, &r.Weakest, &shots, &r.Date, &r.Opponent,
		); err != nil {
			return nil, err
		}
		r.SubjectKind = model.ParseSubjectKind(kind)
		r.HasObservations = hasObs != 0
		if err := json.Unmarshal([]byte(cats), &r.Categories); err != nil {
			return nil, fmt.Errorf("decode categories for %q: %w", r.Subject, err)
		}
		if err := json.Unmarshal([]byte(shots), &r.Shots); err != nil {
			return nil, fmt.Errorf("decode shots for %q: %w", r.Subject, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStatistics returns the statistics tally for one subject of a game, in
// (category asc, count desc) order.
func (db *DB) GetStatistics(gameID string, kind model.SubjectKind, subject string) (*model.StatisticsRecord, error) {
	rows, err := db.conn.Query(`
		SELECT category, action, count, percentage, polarity
		FROM statistics
		WHERE game_id = ? AND subject_kind = ? AND subject = ?
		ORDER BY category, count DESC, action`, gameID, kind.String(), subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec := &model.StatisticsRecord{GameID: gameID, Subject: subject, SubjectKind: kind}
	for rows.Next() {
		var r model.StatRow
		var pol string
		if err := rows.Scan(&r.Category, &r.Action, &r.Count, &r.Percentage, &pol); err != nil {
			return nil, err
		}
		r.Polarity = model.ParsePolarity(pol)
		rec.Rows = append(rec.Rows, r)
	}
	return rec, rows.Err()
}

// GetScorecards returns all player scorecards of a game.
func (db *DB) GetScorecards(gameID string) ([]model.Scorecard, error) {
	rows, err := db.conn.Query(`
		SELECT player_name, rows, positive_total, negative_total, raw_counts
		FROM scorecards WHERE game_id = ?
		ORDER BY player_name`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Scorecard
	for rows.Next() {
		s := model.Scorecard{GameID: gameID}
		var raw string
		if err := rows.Scan(&s.PlayerKey, &s.Rows, &s.PositiveTotal, &s.NegativeTotal, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &s.Counts); err != nil {
			return nil, fmt.Errorf("decode scorecard %q: %w", s.PlayerKey, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListPlayers returns all players ordered by name.
func (db *DB) ListPlayers() ([]model.Player, error) {
	rows, err := db.conn.Query(`SELECT name, display_name, created_at FROM players ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		var created string
		if err := rows.Scan(&p.Key, &p.DisplayName, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Counts is the number of rows per table.
type Counts struct {
	Games, Players, Scorecards, CognitiveScores, Statistics int
}

// Counts returns row counts for every table.
func (db *DB) Counts() (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"games", &c.Games},
		{"players", &c.Players},
		{"scorecards", &c.Scorecards},
		{"cognitive_scores", &c.CognitiveScores},
		{"statistics", &c.Statistics},
	} {
		if err := db.conn.QueryRow("SELECT COUNT(1) FROM " + q.table).Scan(q.dst); err != nil {
			return c, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
