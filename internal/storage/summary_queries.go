package storage

import (
	"database/sql"
	"fmt"
)

// Overview is a high-level summary of the database.
type Overview struct {
	Games     int
	Players   int
	Opponents int
	Earliest  string // YYYY-MM-DD, empty when no games are stored
	Latest    string
	AvgTeam   float64 // mean team overall score over games with observations
}

// GetOverview summarises all stored games.
func (db *DB) GetOverview() (Overview, error) {
	var (
		ov               Overview
		earliest, latest sql.NullString
		avgTeam          sql.NullFloat64
	)
	err := db.conn.QueryRow(`
		SELECT COUNT(1), COUNT(DISTINCT opponent_key), MIN(date), MAX(date)
		FROM games`).Scan(&ov.Games, &ov.Opponents, &earliest, &latest)
	if err != nil {
		return ov, fmt.Errorf("overview games: %w", err)
	}
	ov.Earliest, ov.Latest = earliest.String, latest.String

	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM players`).Scan(&ov.Players); err != nil {
		return ov, fmt.Errorf("overview players: %w", err)
	}
	err = db.conn.QueryRow(`
		SELECT AVG(overall_score) FROM cognitive_scores
		WHERE subject_kind = 'team' AND has_observations = 1`).Scan(&avgTeam)
	if err != nil {
		return ov, fmt.Errorf("overview team score: %w", err)
	}
	ov.AvgTeam = avgTeam.Float64
	return ov, nil
}

// PlayerAverage is one player's cognitive score averaged over games.
type PlayerAverage struct {
	Key         string
	DisplayName string
	Games       int     // games the player appeared in
	Observed    int     // games with at least one tagged observation
	AvgOverall  float64 // over observed games only
	Best, Worst float64
}

// GetTopPlayers returns up to limit players ordered by games played, then by
// average score. Games without observations do not pull the average down.
func (db *DB) GetTopPlayers(limit int) ([]PlayerAverage, error) {
	rows, err := db.conn.Query(`
		SELECT p.name, p.display_name,
		       COUNT(c.game_id),
		       SUM(c.has_observations),
		       AVG(CASE WHEN c.has_observations = 1 THEN c.overall_score END),
		       MAX(CASE WHEN c.has_observations = 1 THEN c.overall_score END),
		       MIN(CASE WHEN c.has_observations = 1 THEN c.overall_score END)
		FROM players p
		JOIN cognitive_scores c ON c.subject_kind = 'player' AND c.subject = p.name
		GROUP BY p.name, p.display_name
		ORDER BY COUNT(c.game_id) DESC, 5 DESC, p.name
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerAverage
	for rows.Next() {
		var (
			p                PlayerAverage
			avg, best, worst sql.NullFloat64
		)
		if err := rows.Scan(&p.Key, &p.DisplayName, &p.Games, &p.Observed, &avg, &best, &worst); err != nil {
			return nil, err
		}
		p.AvgOverall, p.Best, p.Worst = avg.Float64, best.Float64, worst.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}
