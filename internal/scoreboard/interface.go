package scoreboard

import (
	"context"
	"time"
)

// Store persists scoreboard state.
type Store interface {
	List(ctx context.Context) ([]Board, error)
	Assign(ctx context.Context, deviceID string, courtID int64) error
	Unassign(ctx context.Context, courtID int64) error
	ToggleSwap(ctx context.Context, courtID int64) (Board, error)
	Control(ctx context.Context, courtID int64, action Action) (Board, error)
	ReportScore(ctx context.Context, r Report, now time.Time) (Board, error)
}

// ReportPublisher hands a device report to whoever persists it.
type ReportPublisher interface {
	Publish(ctx context.Context, r Report) error
}

// Handler processes one device report.
type Handler func(ctx context.Context, r Report) error
