package processor

import (
	"context"
	"time"

	"github.com/mauv0809/openplay/internal/club"
)

// Store defines the database operations required by the processor.
type Store interface {
	GetAllPlayers(ctx context.Context) ([]club.Player, error)
	GetEligiblePlayers(ctx context.Context, ids []int64, maxConsecutive int) ([]club.Player, error)
	ResetRestedPlayers(ctx context.Context) (int64, error)
	GetFreeCourts(ctx context.Context) ([]club.Court, error)
	PairCounts(ctx context.Context, ids []int64) (club.PairCounts, error)

	CreateMatch(ctx context.Context, courtID *int64, teamA, teamB []int64, now time.Time) (club.Match, error)
	BeginMatch(ctx context.Context, id int64, courtID *int64, now time.Time) (club.Match, error)
	FinishMatch(ctx context.Context, req club.FinishRequest) (club.Match, error)

	StartSession(ctx context.Context, now time.Time) (club.Session, error)
	EndSession(ctx context.Context, now time.Time) (club.Session, error)
	CurrentSession(ctx context.Context) (*club.Session, error)
}
