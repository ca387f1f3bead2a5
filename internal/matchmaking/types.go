package matchmaking

import (
	"time"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/rating"
)

// Rules toggles the score adjustments applied on top of the rating gap.
type Rules struct {
	PrioritizeRest     bool `json:"prioritize_rest"`
	PrioritizeLowGames bool `json:"prioritize_low_games"`
	AvoidRematch       bool `json:"avoid_rematch"`
}

// DefaultRules are the rules used when a request does not say otherwise.
func DefaultRules() Rules {
	return Rules{PrioritizeLowGames: true, AvoidRematch: true}
}

// Weights scale each rule adjustment.
type Weights struct {
	Rest     float64
	LowGames float64
	Rematch  float64
	// NeverPlayedRestSeconds is the rest credited to a player with no
	// last-played time. It is kept in seconds so a huge value cannot overflow.
	NeverPlayedRestSeconds float64
	Bonus                  rating.Bonus
}

// PairLookup reports how often two players have been teammates.
type PairLookup interface {
	TimesPlayedTogether(a, b int64) int
}

// Pairing is a 2v2 split of a group of four.
type Pairing struct {
	TeamA [2]club.Player
	TeamB [2]club.Player
	Gap   float64
}

// Request is the input to Suggest. Players must have distinct ids.
type Request struct {
	Players []club.Player
	Courts  []club.Court
	Rules   Rules
	Weights Weights
	Pairs   PairLookup
	Now     time.Time
}

// Suggestion is a proposed match on one court.
type Suggestion struct {
	Court        club.Court    `json:"court"`
	TeamA        []club.Player `json:"team_A"`
	TeamB        []club.Player `json:"team_B"`
	BalanceScore float64       `json:"balance_score"`
}
