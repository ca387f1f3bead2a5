package club

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mauv0809/openplay/internal/errs"
)

// PairCounts snapshots how often each pair among ids has been teammates.
// Pairs that never played together are absent.
func (s *store) PairCounts(ctx context.Context, ids []int64) (PairCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := PairCounts{}
	if len(ids) < 2 {
		return counts, nil
	}
	in := placeholders(len(ids))
	args := append(ToAnySlice(ids), ToAnySlice(ids)...)
	rows, err := s.db.QueryContext(ctx,
		"SELECT player1_id, player2_id, times_played FROM pair_history WHERE player1_id IN ("+in+") AND player2_id IN ("+in+")",
		args...,
	)
	if err != nil {
		return nil, errs.Storage(err, "failed to query pair history")
	}
	defer rows.Close()

	for rows.Next() {
		var a, b int64
		var n int
		if err := rows.Scan(&a, &b, &n); err != nil {
			return nil, errs.Storage(err, "failed to scan pair history row")
		}
		counts[NewPairKey(a, b)] = n
	}
	return counts, errs.Storage(rows.Err(), "failed to iterate pair history")
}

// GetPairHistory returns nil when a and b never played on the same team.
func (s *store) GetPairHistory(ctx context.Context, a, b int64) (*PairHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := NewPairKey(a, b)
	h := PairHistory{Key: key, Player1ID: key.Low, Player2ID: key.High}
	var last int64
	err := s.db.QueryRowContext(ctx,
		"SELECT times_played, last_played_together FROM pair_history WHERE player1_id = ? AND player2_id = ?",
		key.Low, key.High,
	).Scan(&h.TimesPlayed, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "failed to get pair history for %d and %d", a, b)
	}
	h.LastPlayedTogether = time.Unix(last, 0)
	return &h, nil
}

func recordPair(ctx context.Context, q querier, a, b int64, now time.Time) error {
	key := NewPairKey(a, b)
	_, err := q.ExecContext(ctx, `INSERT INTO pair_history (player1_id, player2_id, times_played, last_played_together)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(player1_id, player2_id) DO UPDATE SET
			times_played = times_played + 1,
			last_played_together = excluded.last_played_together`,
		key.Low, key.High, now.Unix(),
	)
	return errs.Storage(err, "failed to record pair %d and %d", key.Low, key.High)
}
