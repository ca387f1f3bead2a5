package matchmaking

import (
	"math"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/mauv0809/openplay/internal/rating"
)

// splits lists the three ways to pair a group of four, fixing player 0 with
// partner 1, then 2, then 3.
var splits = [3][4]int{
	{0, 1, 2, 3},
	{0, 2, 1, 3},
	{0, 3, 1, 2},
}

// Optimize returns the split of exactly four players with the smallest gap
// between the two virtual team ratings. On ties the earlier split wins.
func Optimize(group []club.Player, bonus rating.Bonus) (Pairing, error) {
	if len(group) != 4 {
		return Pairing{}, errs.Validation(errs.ErrInvalidGroupSize, "group has %d players, want 4", len(group))
	}

	var best Pairing
	found := false
	for _, s := range splits {
		a := [2]club.Player{group[s[0]], group[s[1]]}
		b := [2]club.Player{group[s[2]], group[s[3]]}
		ra, err := rating.TeamRating([]rating.Member{a[0].Member(), a[1].Member()}, bonus)
		if err != nil {
			return Pairing{}, err
		}
		rb, err := rating.TeamRating([]rating.Member{b[0].Member(), b[1].Member()}, bonus)
		if err != nil {
			return Pairing{}, err
		}
		gap := math.Abs(ra - rb)
		if !found || gap < best.Gap {
			best = Pairing{TeamA: a, TeamB: b, Gap: gap}
			found = true
		}
	}
	return best, nil
}
