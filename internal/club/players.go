package club

import (
	"context"
	"database/sql"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

func (s *store) AddPlayer(ctx context.Context, p Player) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO players (name, player_type, category, rating, is_active) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Type, p.Category, p.Rating, boolToInt(p.Active),
	)
	if err != nil {
		return Player{}, errs.Storage(err, "failed to add player %q", p.Name)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return Player{}, errs.Storage(err, "failed to read new player id")
	}
	log.Info("Added player to the store", "playerID", p.ID, "name", p.Name, "rating", p.Rating)
	return p, nil
}

func (s *store) GetPlayer(ctx context.Context, id int64) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players p WHERE p.id = ?", id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, errs.NotFound(nil, "player %d not found", id)
	}
	if err != nil {
		return Player{}, errs.Storage(err, "failed to get player %d", id)
	}
	return p, nil
}

// GetPlayers returns the players with the given ids in the order the ids
// were passed. Unknown ids are skipped.
func (s *store) GetPlayers(ctx context.Context, ids []int64) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return []Player{}, nil
	}
	query := "SELECT " + playerColumns + " FROM players p WHERE p.id IN (" + placeholders(len(ids)) + ")"
	return s.queryPlayersInOrder(ctx, ids, query, ToAnySlice(ids)...)
}

func (s *store) GetAllPlayers(ctx context.Context) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players p ORDER BY p.name ASC")
	if err != nil {
		return nil, errs.Storage(err, "failed to query all players")
	}
	defer rows.Close()

	players := []Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, errs.Storage(err, "failed to scan player row")
		}
		players = append(players, p)
	}
	return players, errs.Storage(rows.Err(), "failed to iterate players")
}

func (s *store) SetPlayerActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE players SET is_active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return errs.Storage(err, "failed to update player %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound(nil, "player %d not found", id)
	}
	return nil
}

// GetEligiblePlayers narrows ids to players who may be suggested: below the
// consecutive-match limit and not on court right now.
func (s *store) GetEligiblePlayers(ctx context.Context, ids []int64, maxConsecutive int) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return []Player{}, nil
	}
	query := "SELECT " + playerColumns + " FROM players p WHERE p.id IN (" + placeholders(len(ids)) + ")" +
		" AND p.consecutive_matches < ? AND p.id NOT IN (" + ongoingPlayers + ")"
	args := append(ToAnySlice(ids), maxConsecutive)
	return s.queryPlayersInOrder(ctx, ids, query, args...)
}

// ResetRestedPlayers zeroes the consecutive-match counter of every available
// player who is not in an ongoing match.
func (s *store) ResetRestedPlayers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE players SET consecutive_matches = 0 WHERE is_active = 1 AND consecutive_matches > 0 AND id NOT IN ("+ongoingPlayers+")",
	)
	if err != nil {
		return 0, errs.Storage(err, "failed to reset rested players")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage(err, "failed to count rested players")
	}
	if n > 0 {
		log.Debug("Reset consecutive match counters", "players", n)
	}
	return n, nil
}

func (s *store) queryPlayersInOrder(ctx context.Context, ids []int64, query string, args ...any) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage(err, "failed to query players")
	}
	defer rows.Close()

	byID := make(map[int64]Player, len(ids))
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, errs.Storage(err, "failed to scan player row")
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(err, "failed to iterate players")
	}

	players := make([]Player, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			players = append(players, p)
			delete(byID, id)
		}
	}
	return players, nil
}
