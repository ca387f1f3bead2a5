package club

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const playerColumns = `p.id, p.name, p.player_type, p.category, p.rating, p.matches_played, p.wins,
	p.session_matches_played, p.session_wins, p.last_played, p.consecutive_matches, p.is_active`

// ongoingPlayers selects the ids of every player rostered in an ongoing match.
const ongoingPlayers = `SELECT mp.player_id FROM match_players mp
	JOIN matches m ON m.id = mp.match_id WHERE m.status = 'ongoing'`

// scanPlayer scans a row whose trailing columns are playerColumns. Any
// leading columns are scanned into lead.
func scanPlayer(scanner interface{ Scan(...any) error }, lead ...any) (Player, error) {
	var p Player
	var lastPlayed sql.NullInt64
	var active int
	dest := append(lead,
		&p.ID, &p.Name, &p.Type, &p.Category, &p.Rating, &p.MatchesPlayed, &p.Wins,
		&p.SessionMatchesPlayed, &p.SessionWins, &lastPlayed, &p.ConsecutiveMatches, &active,
	)
	if err := scanner.Scan(dest...); err != nil {
		return Player{}, err
	}
	p.LastPlayed = fromUnix(lastPlayed)
	p.Active = active != 0
	return p, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func ToAnySlice[T any](s []T) []any {
	a := make([]any, len(s))
	for i, v := range s {
		a[i] = v
	}
	return a
}

func fromUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
