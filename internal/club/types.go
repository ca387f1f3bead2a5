package club

import (
	"database/sql"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mauv0809/openplay/internal/errs"
	"github.com/mauv0809/openplay/internal/rating"
)

// store handles all database operations for the club.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// MatchStatus is the lifecycle state of a match: queued -> ongoing -> finished.
type MatchStatus string

const (
	StatusQueued   MatchStatus = "queued"
	StatusOngoing  MatchStatus = "ongoing"
	StatusFinished MatchStatus = "finished"
)

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusOngoing, StatusFinished:
		return true
	}
	return false
}

// Side designates a team within a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Player is a club member or guest.
type Player struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Type                 string     `json:"type"`
	Category             string     `json:"category"`
	Rating               float64    `json:"elo_rating"`
	MatchesPlayed        int        `json:"total_matches_played"`
	Wins                 int        `json:"wins"`
	SessionMatchesPlayed int        `json:"session_matches_played"`
	SessionWins          int        `json:"session_wins"`
	LastPlayed           *time.Time `json:"last_played,omitempty"`
	ConsecutiveMatches   int        `json:"consecutive_matches"`
	Active               bool       `json:"is_active"`
}

// NewPlayer validates and builds a player that has not been stored yet.
func NewPlayer(name, playerType, category string, initialRating float64) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, errs.Validation(nil, "player name is required")
	}
	if math.IsNaN(initialRating) || math.IsInf(initialRating, 0) {
		return Player{}, errs.Validation(errs.ErrNonFinite, "player rating must be finite")
	}
	if playerType == "" {
		playerType = "guest"
	}
	return Player{Name: name, Type: playerType, Category: category, Rating: initialRating}, nil
}

// Sensitivity is derived from lifetime matches played on every call and is
// never stored.
func (p Player) Sensitivity(s rating.Sensitivity) float64 {
	return s.Factor(p.MatchesPlayed)
}

// Member is the rating view of the player.
func (p Player) Member() rating.Member {
	return rating.Member{Rating: p.Rating, Category: p.Category}
}

// Court is a playing court. Occupancy is derived from ongoing matches.
type Court struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SessionTurns int    `json:"session_turns"`
}

// Match is a queued, ongoing or finished game between two teams.
type Match struct {
	ID          int64       `json:"id"`
	CourtID     *int64      `json:"court_id,omitempty"`
	CourtName   string      `json:"court_name,omitempty"`
	Status      MatchStatus `json:"status"`
	TeamA       []Player    `json:"team_A"`
	TeamB       []Player    `json:"team_B"`
	ScoreA      *int        `json:"score_A,omitempty"`
	ScoreB      *int        `json:"score_B,omitempty"`
	WinningTeam Side        `json:"winning_team,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartTime   *time.Time  `json:"start_time,omitempty"`
	EndTime     *time.Time  `json:"end_time,omitempty"`
}

// PlayerIDs returns every rostered player id, team A first.
func (m Match) PlayerIDs() []int64 {
	ids := make([]int64, 0, len(m.TeamA)+len(m.TeamB))
	for _, p := range m.TeamA {
		ids = append(ids, p.ID)
	}
	for _, p := range m.TeamB {
		ids = append(ids, p.ID)
	}
	return ids
}

// ValidateRoster checks team sizes and that no player is on the court twice.
func ValidateRoster(teamA, teamB []int64) error {
	if len(teamA) < 1 || len(teamA) > 2 {
		return errs.Validation(errs.ErrInvalidTeamSize, "team A has %d players, want 1 or 2", len(teamA))
	}
	if len(teamB) < 1 || len(teamB) > 2 {
		return errs.Validation(errs.ErrInvalidTeamSize, "team B has %d players, want 1 or 2", len(teamB))
	}
	seen := make(map[int64]struct{}, 4)
	for _, id := range append(append([]int64{}, teamA...), teamB...) {
		if _, dup := seen[id]; dup {
			return errs.Validation(errs.ErrDuplicatePlayer, "player %d appears more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateScores rejects negative scores and ties.
func ValidateScores(scoreA, scoreB int) error {
	if scoreA < 0 || scoreB < 0 {
		return errs.Validation(errs.ErrInvalidScore, "scores must be non-negative, got %d-%d", scoreA, scoreB)
	}
	if scoreA == scoreB {
		return errs.Validation(errs.ErrInvalidScore, "scores must differ, got %d-%d", scoreA, scoreB)
	}
	return nil
}

// Winner returns the side with the higher score.
func Winner(scoreA, scoreB int) Side {
	if scoreA > scoreB {
		return SideA
	}
	return SideB
}

// PairKey is an unordered pair of player ids stored with the smaller id first.
type PairKey struct {
	Low  int64
	High int64
}

// NewPairKey returns the canonical key for a and b.
func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// PairHistory records how often two players have been teammates.
type PairHistory struct {
	Key                PairKey   `json:"-"`
	Player1ID          int64     `json:"player1_id"`
	Player2ID          int64     `json:"player2_id"`
	TimesPlayed        int       `json:"times_played"`
	LastPlayedTogether time.Time `json:"last_played_together"`
}

// PairCounts is an in-memory snapshot of pair history.
type PairCounts map[PairKey]int

// TimesPlayedTogether returns how often a and b were teammates.
func (c PairCounts) TimesPlayedTogether(a, b int64) int {
	return c[NewPairKey(a, b)]
}

// Session is one open-play evening.
type Session struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// RatingFunc computes the rating change of every rostered player for a
// finished match. It is called inside the finish transaction with the
// player rows as they are before the match is applied.
type RatingFunc func(teamA, teamB []Player, aWon bool) (map[int64]float64, error)

// FinishRequest carries everything needed to finish a match atomically.
type FinishRequest struct {
	MatchID int64
	ScoreA  int
	ScoreB  int
	Now     time.Time
	Rate    RatingFunc
}
