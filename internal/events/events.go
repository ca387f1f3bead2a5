// Package events defines the domain events produced by state changes. A
// mutation returns its events and they are delivered only after commit.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/openplay/internal/club"
)

// Name identifies the kind of event. It doubles as the realtime channel name.
type Name string

const (
	MatchStateChanged           Name = "match_state_changed"
	ScoreUpdated                Name = "score_updated"
	ScoreboardAssignmentChanged Name = "scoreboard_assignment_changed"
	BoardStateUpdated           Name = "board_state_updated"
	SessionChanged              Name = "session_changed"
)

// Event is a single state change.
type Event struct {
	ID         string    `json:"id" msgpack:"id"`
	Name       Name      `json:"event" msgpack:"event"`
	Payload    any       `json:"data" msgpack:"data"`
	OccurredAt time.Time `json:"timestamp" msgpack:"timestamp"`
}

// New stamps an event with a fresh id.
func New(name Name, payload any, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		OccurredAt: at,
	}
}

// MatchChange is the payload of MatchStateChanged.
type MatchChange struct {
	MatchID int64            `json:"match_id" msgpack:"match_id"`
	From    club.MatchStatus `json:"from,omitempty" msgpack:"from"`
	To      club.MatchStatus `json:"to" msgpack:"to"`
	Match   club.Match       `json:"match" msgpack:"match"`
	// Deltas holds the rating change per player id. Set only on finish.
	Deltas map[int64]float64 `json:"rating_deltas,omitempty" msgpack:"rating_deltas,omitempty"`
}

// MatchChanged builds a MatchStateChanged event for m.
func MatchChanged(m club.Match, from club.MatchStatus, at time.Time) Event {
	return New(MatchStateChanged, MatchChange{MatchID: m.ID, From: from, To: m.Status, Match: m}, at)
}

// MatchFinished builds the MatchStateChanged event for a finished match.
func MatchFinished(m club.Match, deltas map[int64]float64, at time.Time) Event {
	return New(MatchStateChanged, MatchChange{MatchID: m.ID, From: club.StatusOngoing, To: m.Status, Match: m, Deltas: deltas}, at)
}

// SessionChange is the payload of SessionChanged.
type SessionChange struct {
	Session club.Session `json:"session" msgpack:"session"`
	// Standings is set when a session ends, best session record first.
	Standings []club.Player `json:"standings,omitempty" msgpack:"standings,omitempty"`
}

// ScoreChange is the payload of ScoreUpdated.
type ScoreChange struct {
	CourtID int64 `json:"court_id" msgpack:"court_id"`
	ScoreA  int   `json:"score_A" msgpack:"score_A"`
	ScoreB  int   `json:"score_B" msgpack:"score_B"`
}

// AssignmentChange is the payload of ScoreboardAssignmentChanged. DeviceID
// is nil when the court's board was unassigned.
type AssignmentChange struct {
	CourtID  int64   `json:"court_id" msgpack:"court_id"`
	DeviceID *string `json:"device_id" msgpack:"device_id"`
}

// BoardState is the payload of BoardStateUpdated.
type BoardState struct {
	CourtID   int64 `json:"court_id" msgpack:"court_id"`
	IsSwapped bool  `json:"is_swapped" msgpack:"is_swapped"`
}
