package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

const matchColumns = `m.id, m.court_id, COALESCE(c.name, ''), m.status, m.score_a, m.score_b,
	COALESCE(m.winning_team, ''), m.created_at, m.start_time, m.end_time`

const matchFrom = ` FROM matches m LEFT JOIN courts c ON c.id = m.court_id`

// CreateMatch queues a match. The court is optional until the match begins.
func (s *store) CreateMatch(ctx context.Context, courtID *int64, teamA, teamB []int64, now time.Time) (Match, error) {
	if err := ValidateRoster(teamA, teamB); err != nil {
		return Match{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if courtID != nil {
		if err := courtExists(ctx, tx, *courtID); err != nil {
			return Match{}, err
		}
	}
	ids := append(append([]int64{}, teamA...), teamB...)
	var found int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM players WHERE id IN ("+placeholders(len(ids))+")", ToAnySlice(ids)...).Scan(&found)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to look up rostered players")
	}
	if found != len(ids) {
		return Match{}, errs.NotFound(nil, "%d of %d rostered players not found", len(ids)-found, len(ids))
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO matches (court_id, status, created_at) VALUES (?, ?, ?)",
		courtID, StatusQueued, now.Unix())
	if err != nil {
		return Match{}, errs.Storage(err, "failed to insert match")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Match{}, errs.Storage(err, "failed to read new match id")
	}
	if err := insertRoster(ctx, tx, id, SideA, teamA); err != nil {
		return Match{}, err
	}
	if err := insertRoster(ctx, tx, id, SideB, teamB); err != nil {
		return Match{}, err
	}

	m, err := getMatch(ctx, tx, id)
	if err != nil {
		return Match{}, err
	}
	if err := tx.Commit(); err != nil {
		return Match{}, errs.Storage(err, "failed to commit match %d", id)
	}
	log.Info("Queued match", "matchID", id, "teamA", teamA, "teamB", teamB)
	return m, nil
}

func insertRoster(ctx context.Context, tx *sql.Tx, matchID int64, side Side, team []int64) error {
	for pos, playerID := range team {
		_, err := tx.ExecContext(ctx, "INSERT INTO match_players (match_id, player_id, team, position) VALUES (?, ?, ?, ?)",
			matchID, playerID, side, pos)
		if err != nil {
			return errs.Storage(err, "failed to roster player %d on match %d", playerID, matchID)
		}
	}
	return nil
}

func (s *store) GetMatch(ctx context.Context, id int64) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getMatch(ctx, s.db, id)
}

// ListMatches returns matches in the given status. Queued matches come
// oldest first, ongoing by start time, finished most recent first.
func (s *store) ListMatches(ctx context.Context, status MatchStatus) ([]Match, error) {
	if !status.Valid() {
		return nil, errs.Validation(nil, "unknown match status %q", status)
	}
	var order string
	switch status {
	case StatusQueued:
		order = "m.created_at ASC, m.id ASC"
	case StatusOngoing:
		order = "m.start_time ASC, m.id ASC"
	default:
		order = "m.end_time DESC, m.id DESC"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+matchColumns+matchFrom+" WHERE m.status = ? ORDER BY "+order, status)
	if err != nil {
		return nil, errs.Storage(err, "failed to query %s matches", status)
	}
	matches := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			rows.Close()
			return nil, errs.Storage(err, "failed to scan match row")
		}
		matches = append(matches, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(err, "failed to iterate matches")
	}
	if err := loadRosters(ctx, s.db, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// BeginMatch moves a queued match onto a court. courtID overrides the court
// chosen when the match was queued. A court hosts at most one ongoing match.
func (s *store) BeginMatch(ctx context.Context, id int64, courtID *int64, now time.Time) (Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	m, err := getMatch(ctx, tx, id)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusQueued {
		return Match{}, errs.NotFound(errs.ErrInvalidState, "match %d is %s, want %s", id, m.Status, StatusQueued)
	}
	if courtID == nil {
		courtID = m.CourtID
	}
	if courtID == nil {
		return Match{}, errs.Validation(nil, "match %d has no court assigned", id)
	}
	if err := courtExists(ctx, tx, *courtID); err != nil {
		return Match{}, err
	}

	var busy int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM matches WHERE court_id = ? AND status = 'ongoing' LIMIT 1", *courtID).Scan(&busy)
	switch {
	case err == nil:
		return Match{}, errs.Conflict(errs.ErrCourtBusy, "court %d is hosting match %d", *courtID, busy)
	case !errors.Is(err, sql.ErrNoRows):
		return Match{}, errs.Storage(err, "failed to check court %d", *courtID)
	}

	res, err := tx.ExecContext(ctx, "UPDATE matches SET status = 'ongoing', court_id = ?, start_time = ? WHERE id = ? AND status = 'queued'",
		*courtID, now.Unix(), id)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to begin match %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Match{}, errs.NotFound(errs.ErrInvalidState, "match %d is no longer queued", id)
	}

	ids := m.PlayerIDs()
	if _, err := tx.ExecContext(ctx, "UPDATE players SET consecutive_matches = consecutive_matches + 1 WHERE id IN ("+placeholders(len(ids))+")", ToAnySlice(ids)...); err != nil {
		return Match{}, errs.Storage(err, "failed to update consecutive matches")
	}
	if _, err := tx.ExecContext(ctx, "UPDATE courts SET session_turns = session_turns + 1 WHERE id = ?", *courtID); err != nil {
		return Match{}, errs.Storage(err, "failed to update court %d turns", *courtID)
	}

	m, err = getMatch(ctx, tx, id)
	if err != nil {
		return Match{}, err
	}
	if err := tx.Commit(); err != nil {
		return Match{}, errs.Storage(err, "failed to commit match %d", id)
	}
	log.Info("Match began", "matchID", id, "courtID", *courtID)
	return m, nil
}

// FinishMatch records the score, applies rating deltas from req.Rate to
// every rostered player and bumps teammate pair history. All of it commits
// together or not at all. A match can be finished only once.
func (s *store) FinishMatch(ctx context.Context, req FinishRequest) (Match, error) {
	if err := ValidateScores(req.ScoreA, req.ScoreB); err != nil {
		return Match{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	m, err := getMatch(ctx, tx, req.MatchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusOngoing {
		return Match{}, errs.NotFound(errs.ErrInvalidState, "match %d is %s, want %s", req.MatchID, m.Status, StatusOngoing)
	}

	winner := Winner(req.ScoreA, req.ScoreB)
	deltas := map[int64]float64{}
	if req.Rate != nil {
		deltas, err = req.Rate(m.TeamA, m.TeamB, winner == SideA)
		if err != nil {
			return Match{}, err
		}
	}

	ts := req.Now.Unix()
	apply := func(team []Player, side Side) error {
		won := boolToInt(side == winner)
		for _, p := range team {
			d := deltas[p.ID]
			_, err := tx.ExecContext(ctx, `UPDATE players SET
				rating = rating + ?,
				matches_played = matches_played + 1,
				wins = wins + ?,
				session_matches_played = session_matches_played + 1,
				session_wins = session_wins + ?,
				last_played = ?,
				session_last_played = ?
				WHERE id = ?`,
				d, won, won, ts, ts, p.ID)
			if err != nil {
				return errs.Storage(err, "failed to update player %d", p.ID)
			}
			_, err = tx.ExecContext(ctx, "UPDATE match_players SET rating_before = ?, rating_delta = ? WHERE match_id = ? AND player_id = ?",
				p.Rating, d, m.ID, p.ID)
			if err != nil {
				return errs.Storage(err, "failed to record rating change for player %d", p.ID)
			}
		}
		if len(team) == 2 {
			return recordPair(ctx, tx, team[0].ID, team[1].ID, req.Now)
		}
		return nil
	}
	if err := apply(m.TeamA, SideA); err != nil {
		return Match{}, err
	}
	if err := apply(m.TeamB, SideB); err != nil {
		return Match{}, err
	}

	res, err := tx.ExecContext(ctx, "UPDATE matches SET status = 'finished', score_a = ?, score_b = ?, winning_team = ?, end_time = ? WHERE id = ? AND status = 'ongoing'",
		req.ScoreA, req.ScoreB, winner, ts, m.ID)
	if err != nil {
		return Match{}, errs.Storage(err, "failed to finish match %d", m.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Match{}, errs.NotFound(errs.ErrInvalidState, "match %d is no longer ongoing", m.ID)
	}

	m, err = getMatch(ctx, tx, m.ID)
	if err != nil {
		return Match{}, err
	}
	if err := tx.Commit(); err != nil {
		return Match{}, errs.Storage(err, "failed to commit match %d", m.ID)
	}
	log.Info("Match finished", "matchID", m.ID, "score", fmt.Sprintf("%d-%d", req.ScoreA, req.ScoreB), "winner", winner)
	return m, nil
}

func getMatch(ctx context.Context, q querier, id int64) (Match, error) {
	row := q.QueryRowContext(ctx, "SELECT "+matchColumns+matchFrom+" WHERE m.id = ?", id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, errs.NotFound(errs.ErrMatchNotFound, "match %d not found", id)
	}
	if err != nil {
		return Match{}, errs.Storage(err, "failed to get match %d", id)
	}
	matches := []Match{m}
	if err := loadRosters(ctx, q, matches); err != nil {
		return Match{}, err
	}
	return matches[0], nil
}

func scanMatch(scanner interface{ Scan(...any) error }) (Match, error) {
	var (
		m                  Match
		courtID            sql.NullInt64
		scoreA, scoreB     sql.NullInt64
		winner             string
		created            int64
		startTime, endTime sql.NullInt64
	)
	err := scanner.Scan(&m.ID, &courtID, &m.CourtName, &m.Status, &scoreA, &scoreB, &winner, &created, &startTime, &endTime)
	if err != nil {
		return Match{}, err
	}
	if courtID.Valid {
		m.CourtID = &courtID.Int64
	}
	if scoreA.Valid && scoreB.Valid {
		a, b := int(scoreA.Int64), int(scoreB.Int64)
		m.ScoreA, m.ScoreB = &a, &b
	}
	m.WinningTeam = Side(winner)
	m.CreatedAt = time.Unix(created, 0)
	m.StartTime = fromUnix(startTime)
	m.EndTime = fromUnix(endTime)
	m.TeamA, m.TeamB = []Player{}, []Player{}
	return m, nil
}

// loadRosters fills TeamA and TeamB of every match with the current player rows.
func loadRosters(ctx context.Context, q querier, matches []Match) error {
	if len(matches) == 0 {
		return nil
	}
	index := make(map[int64]int, len(matches))
	ids := make([]int64, len(matches))
	for i, m := range matches {
		index[m.ID] = i
		ids[i] = m.ID
	}
	rows, err := q.QueryContext(ctx, "SELECT mp.match_id, mp.team, "+playerColumns+
		" FROM match_players mp JOIN players p ON p.id = mp.player_id WHERE mp.match_id IN ("+placeholders(len(ids))+")"+
		" ORDER BY mp.match_id, mp.team, mp.position", ToAnySlice(ids)...)
	if err != nil {
		return errs.Storage(err, "failed to query match rosters")
	}
	defer rows.Close()

	for rows.Next() {
		var matchID int64
		var side Side
		p, err := scanPlayer(rows, &matchID, &side)
		if err != nil {
			return errs.Storage(err, "failed to scan roster row")
		}
		m := &matches[index[matchID]]
		if side == SideA {
			m.TeamA = append(m.TeamA, p)
		} else {
			m.TeamB = append(m.TeamB, p)
		}
	}
	return errs.Storage(rows.Err(), "failed to iterate match rosters")
}
