package matchmaking

import (
	"math"
	"sort"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/errs"
)

type candidate struct {
	pairing Pairing
	ids     [4]int64
	score   float64
}

// Suggest assigns balanced groups of four to free courts, best score first.
// It returns no suggestions when there are fewer than four players or no
// courts. The same request always yields the same suggestions.
func Suggest(req Request) ([]Suggestion, error) {
	seen := make(map[int64]struct{}, len(req.Players))
	for _, p := range req.Players {
		if _, dup := seen[p.ID]; dup {
			return nil, errs.Validation(errs.ErrDuplicatePlayer, "player %d appears more than once", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	limit := min(len(req.Courts), len(req.Players)/4)
	if limit == 0 {
		return []Suggestion{}, nil
	}

	candidates, err := score(req)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	used := make(map[int64]struct{}, limit*4)
	suggestions := make([]Suggestion, 0, limit)
	for _, court := range req.Courts {
		if len(suggestions) == limit {
			break
		}
		for _, c := range candidates {
			if overlaps(used, c.ids) {
				continue
			}
			for _, id := range c.ids {
				used[id] = struct{}{}
			}
			suggestions = append(suggestions, Suggestion{
				Court:        court,
				TeamA:        c.pairing.TeamA[:],
				TeamB:        c.pairing.TeamB[:],
				BalanceScore: math.Round(c.score*100) / 100,
			})
			break
		}
	}
	return suggestions, nil
}

// score enumerates every group of four in input order (i<j<k<l) and scores it.
func score(req Request) ([]candidate, error) {
	players := req.Players
	n := len(players)
	out := make([]candidate, 0, n*(n-1)*(n-2)*(n-3)/24)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					group := []club.Player{players[i], players[j], players[k], players[l]}
					pairing, err := Optimize(group, req.Weights.Bonus)
					if err != nil {
						return nil, err
					}
					out = append(out, candidate{
						pairing: pairing,
						ids:     [4]int64{group[0].ID, group[1].ID, group[2].ID, group[3].ID},
						score:   adjust(req, group, pairing),
					})
				}
			}
		}
	}
	return out, nil
}

// adjust applies the enabled rules to the pairing's gap. Lower is better.
func adjust(req Request, group []club.Player, p Pairing) float64 {
	s := p.Gap
	w := req.Weights
	if req.Rules.PrioritizeRest {
		var rest float64
		for _, pl := range group {
			rest += restSeconds(pl, req)
		}
		s -= rest / 4 * w.Rest
	}
	if req.Rules.PrioritizeLowGames {
		var games int
		for _, pl := range group {
			games += pl.MatchesPlayed
		}
		s += float64(games) * w.LowGames
	}
	if req.Rules.AvoidRematch && req.Pairs != nil {
		repeats := req.Pairs.TimesPlayedTogether(p.TeamA[0].ID, p.TeamA[1].ID) +
			req.Pairs.TimesPlayedTogether(p.TeamB[0].ID, p.TeamB[1].ID)
		s += float64(repeats) * w.Rematch
	}
	return s
}

func restSeconds(p club.Player, req Request) float64 {
	if p.LastPlayed == nil {
		return req.Weights.NeverPlayedRestSeconds
	}
	return math.Max(0, req.Now.Sub(*p.LastPlayed).Seconds())
}

func overlaps(used map[int64]struct{}, ids [4]int64) bool {
	for _, id := range ids {
		if _, ok := used[id]; ok {
			return true
		}
	}
	return false
}
