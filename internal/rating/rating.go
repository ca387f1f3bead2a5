// Package rating implements the pairwise skill-update model used for doubles
// matches. All functions are pure and parametric over their constants.
package rating

import (
	"math"

	"github.com/mauv0809/openplay/internal/errs"
)

// Result is the outcome credited to a team: 1 for a win, 0 for a loss.
type Result float64

const (
	Loss Result = 0
	Win  Result = 1
)

// Logistic holds the base and scale of the expected-outcome curve.
type Logistic struct {
	Base  float64
	Scale float64
}

// Tier is a sensitivity step: players with fewer than Below lifetime matches
// get Factor.
type Tier struct {
	Below  int
	Factor float64
}

// Sensitivity is a step function from lifetime matches played to an update
// magnitude. Tiers are evaluated in order; Floor applies past the last tier.
type Sensitivity struct {
	Tiers []Tier
	Floor float64
}

// Bonus adds Amount to the virtual rating of every player in Category.
type Bonus struct {
	Category string
	Amount   float64
}

// Member is the slice of player state the model needs.
type Member struct {
	Rating   float64
	Category string
}

// ExpectedOutcome is the probability that team A beats team B:
// 1 / (1 + base^((b-a)/scale)).
func ExpectedOutcome(teamRatingA, teamRatingB float64, l Logistic) (float64, error) {
	if l.Scale == 0 || l.Base <= 0 || !finite(l.Base, l.Scale, teamRatingA, teamRatingB) {
		return 0, errs.Validation(errs.ErrNonFinite, "invalid logistic parameters base=%v scale=%v", l.Base, l.Scale)
	}
	e := 1 / (1 + math.Pow(l.Base, (teamRatingB-teamRatingA)/l.Scale))
	if !finite(e) {
		return 0, errs.Validation(errs.ErrNonFinite, "expected outcome for %v vs %v is not finite", teamRatingA, teamRatingB)
	}
	return e, nil
}

// TeamRating is the mean rating of a 1 or 2 player team with the category
// bonus applied per matching player. The result is a virtual value and is
// never written back to a player. Pass a zero Bonus for the plain mean.
func TeamRating(members []Member, bonus Bonus) (float64, error) {
	if len(members) < 1 || len(members) > 2 {
		return 0, errs.Validation(errs.ErrInvalidTeamSize, "team has %d players", len(members))
	}
	var sum float64
	for _, m := range members {
		r := m.Rating
		if bonus.Category != "" && m.Category == bonus.Category {
			r += bonus.Amount
		}
		sum += r
	}
	mean := sum / float64(len(members))
	if !finite(mean) {
		return 0, errs.Validation(errs.ErrNonFinite, "team rating is not finite")
	}
	return mean, nil
}

// Factor returns the update magnitude for a player with matchesPlayed
// lifetime matches.
func (s Sensitivity) Factor(matchesPlayed int) float64 {
	for _, t := range s.Tiers {
		if matchesPlayed < t.Below {
			return t.Factor
		}
	}
	return s.Floor
}

// RatingDelta is sensitivity * (actual - expected) for the team credited with
// actual. The opposing team receives the negation.
func RatingDelta(sensitivity float64, actual Result, expected float64) (float64, error) {
	if actual != Win && actual != Loss {
		return 0, errs.Validation(nil, "result must be 0 or 1, got %v", float64(actual))
	}
	d := sensitivity * (float64(actual) - expected)
	if !finite(d) {
		return 0, errs.Validation(errs.ErrNonFinite, "rating delta is not finite")
	}
	return d, nil
}

// MatchDeltas returns the team-level deltas for a finished match. They are
// zero-sum by construction.
func MatchDeltas(teamRatingA, teamRatingB, sensitivity float64, aWon bool, l Logistic) (float64, float64, error) {
	e, err := ExpectedOutcome(teamRatingA, teamRatingB, l)
	if err != nil {
		return 0, 0, err
	}
	actual := Loss
	if aWon {
		actual = Win
	}
	dA, err := RatingDelta(sensitivity, actual, e)
	if err != nil {
		return 0, 0, err
	}
	return dA, -dA, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
