package club

import (
	"context"
	"time"
)

// ClubStore defines the interface for interacting with the club's data.
type ClubStore interface {
	AddPlayer(ctx context.Context, p Player) (Player, error)
	GetPlayer(ctx context.Context, id int64) (Player, error)
	GetPlayers(ctx context.Context, ids []int64) ([]Player, error)
	GetAllPlayers(ctx context.Context) ([]Player, error)
	SetPlayerActive(ctx context.Context, id int64, active bool) error
	GetEligiblePlayers(ctx context.Context, ids []int64, maxConsecutive int) ([]Player, error)
	ResetRestedPlayers(ctx context.Context) (int64, error)

	AddCourt(ctx context.Context, name string) (Court, error)
	GetCourts(ctx context.Context) ([]Court, error)
	GetFreeCourts(ctx context.Context) ([]Court, error)

	PairCounts(ctx context.Context, ids []int64) (PairCounts, error)
	GetPairHistory(ctx context.Context, a, b int64) (*PairHistory, error)

	CreateMatch(ctx context.Context, courtID *int64, teamA, teamB []int64, now time.Time) (Match, error)
	GetMatch(ctx context.Context, id int64) (Match, error)
	ListMatches(ctx context.Context, status MatchStatus) ([]Match, error)
	BeginMatch(ctx context.Context, id int64, courtID *int64, now time.Time) (Match, error)
	FinishMatch(ctx context.Context, req FinishRequest) (Match, error)

	StartSession(ctx context.Context, now time.Time) (Session, error)
	EndSession(ctx context.Context, now time.Time) (Session, error)
	CurrentSession(ctx context.Context) (*Session, error)
}
