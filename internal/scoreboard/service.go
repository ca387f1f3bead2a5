package scoreboard

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
)

// Service applies scoreboard changes and publishes the matching events once
// they are stored.
type Service struct {
	store     Store
	publisher notifier.Publisher
	metrics   metrics.Metrics
	now       func() time.Time
}

// NewService creates a Service.
func NewService(store Store, publisher notifier.Publisher, metrics metrics.Metrics) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Board, error) {
	return s.store.List(ctx)
}

func (s *Service) Assign(ctx context.Context, deviceID string, courtID int64) error {
	if err := s.store.Assign(ctx, deviceID, courtID); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.New(events.ScoreboardAssignmentChanged,
		events.AssignmentChange{CourtID: courtID, DeviceID: &deviceID}, s.now()))
	return nil
}

func (s *Service) Unassign(ctx context.Context, courtID int64) error {
	if err := s.store.Unassign(ctx, courtID); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.New(events.ScoreboardAssignmentChanged,
		events.AssignmentChange{CourtID: courtID}, s.now()))
	return nil
}

func (s *Service) ToggleSwap(ctx context.Context, courtID int64) (Board, error) {
	b, err := s.store.ToggleSwap(ctx, courtID)
	if err != nil {
		return Board{}, err
	}
	s.publisher.Publish(ctx, events.New(events.BoardStateUpdated,
		events.BoardState{CourtID: courtID, IsSwapped: b.IsSwapped}, s.now()))
	return b, nil
}

func (s *Service) Control(ctx context.Context, courtID int64, action Action) (Board, error) {
	b, err := s.store.Control(ctx, courtID, action)
	if err != nil {
		return Board{}, err
	}
	s.metrics.IncScoreboardUpdates()
	s.publisher.Publish(ctx, scoreUpdated(courtID, b, s.now()))
	return b, nil
}

// ReportScore stores a device score. The score is only broadcast when the
// device is assigned to a court. It has the Handler signature so it can
// consume the redis channel directly.
func (s *Service) ReportScore(ctx context.Context, r Report) error {
	b, err := s.store.ReportScore(ctx, r, s.now())
	if err != nil {
		return err
	}
	s.metrics.IncScoreboardUpdates()
	log.Debug("Scoreboard reported score", "deviceID", b.DeviceID, "scoreA", b.ScoreA, "scoreB", b.ScoreB, "source", r.Source)
	if b.CourtID != nil {
		s.publisher.Publish(ctx, scoreUpdated(*b.CourtID, b, s.now()))
	}
	return nil
}

func scoreUpdated(courtID int64, b Board, at time.Time) events.Event {
	return events.New(events.ScoreUpdated, events.ScoreChange{CourtID: courtID, ScoreA: b.ScoreA, ScoreB: b.ScoreB}, at)
}

// Publish stores r right away. It stands in for the redis bridge when no
// redis server is configured.
func (s *Service) Publish(ctx context.Context, r Report) error {
	return s.ReportScore(ctx, r)
}
