package processor

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/mauv0809/openplay/internal/rating"
	"github.com/mauv0809/openplay/internal/settings"
)

// New creates a new Processor.
func New(store Store, settings settings.SettingsStore, publisher notifier.Publisher, metrics metrics.Metrics) *Processor {
	return &Processor{
		store:     store,
		settings:  settings,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Suggest proposes balanced matches for the free courts from the requested
// players who are eligible to play next.
func (p *Processor) Suggest(ctx context.Context, req SuggestRequest) ([]matchmaking.Suggestion, error) {
	p.metrics.IncSuggestionsRequested()
	start := time.Now()
	defer func() {
		p.metrics.ObserveSuggestionDuration(time.Since(start).Seconds())
	}()

	seen := make(map[int64]struct{}, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		if _, dup := seen[id]; dup {
			return nil, errs.Validation(errs.ErrDuplicatePlayer, "player %d requested more than once", id)
		}
		seen[id] = struct{}{}
	}
	if len(req.PlayerIDs) < 4 {
		return []matchmaking.Suggestion{}, nil
	}

	cfg, err := p.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Players who sat out since their last match may play again.
	if _, err := p.store.ResetRestedPlayers(ctx); err != nil {
		log.Warn("Failed to reset rested players", "error", err)
	}

	players, err := p.store.GetEligiblePlayers(ctx, req.PlayerIDs, cfg.MaxConsecutiveMatches)
	if err != nil {
		return nil, err
	}
	courts, err := p.store.GetFreeCourts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(players))
	for i, pl := range players {
		ids[i] = pl.ID
	}
	pairs, err := p.store.PairCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	suggestions, err := matchmaking.Suggest(matchmaking.Request{
		Players: players,
		Courts:  courts,
		Rules:   req.Rules,
		Weights: cfg.Weights(),
		Pairs:   pairs,
		Now:     p.now(),
	})
	if err != nil {
		return nil, err
	}
	p.metrics.AddSuggestionsProduced(len(suggestions))
	log.Info("Computed suggestions", "requested", len(req.PlayerIDs), "eligible", len(players), "freeCourts", len(courts), "suggestions", len(suggestions))
	return suggestions, nil
}

// CreateMatch queues a match.
func (p *Processor) CreateMatch(ctx context.Context, courtID *int64, teamA, teamB []int64) (club.Match, error) {
	now := p.now()
	m, err := p.store.CreateMatch(ctx, courtID, teamA, teamB, now)
	if err != nil {
		return club.Match{}, err
	}
	log.Info("Match queued", "matchID", m.ID)
	p.publisher.Publish(ctx, events.MatchChanged(m, "", now))
	return m, nil
}

// BeginMatch puts a queued match on court. courtID overrides the court the
// match was queued for.
func (p *Processor) BeginMatch(ctx context.Context, id int64, courtID *int64) (club.Match, error) {
	now := p.now()
	m, err := p.store.BeginMatch(ctx, id, courtID, now)
	if err != nil {
		return club.Match{}, err
	}
	p.metrics.IncMatchesBegun()
	log.Info("Match begun", "matchID", m.ID, "courtID", m.CourtID)
	p.publisher.Publish(ctx, events.MatchChanged(m, club.StatusQueued, now))
	return m, nil
}

// FinishMatch records the score of an ongoing match and applies the rating
// changes in the same transaction.
func (p *Processor) FinishMatch(ctx context.Context, id int64, scoreA, scoreB int) (club.Match, error) {
	if err := club.ValidateScores(scoreA, scoreB); err != nil {
		return club.Match{}, err
	}
	cfg, err := p.settings.Get(ctx)
	if err != nil {
		return club.Match{}, err
	}

	var deltas map[int64]float64
	rate := ratingFunc(cfg)
	now := p.now()
	m, err := p.store.FinishMatch(ctx, club.FinishRequest{
		MatchID: id,
		ScoreA:  scoreA,
		ScoreB:  scoreB,
		Now:     now,
		Rate: func(teamA, teamB []club.Player, aWon bool) (map[int64]float64, error) {
			d, err := rate(teamA, teamB, aWon)
			deltas = d
			return d, err
		},
	})
	if err != nil {
		return club.Match{}, err
	}
	p.metrics.IncMatchesFinished()
	log.Info("Match finished", "matchID", m.ID, "scoreA", scoreA, "scoreB", scoreB, "winner", m.WinningTeam)
	p.publisher.Publish(ctx, events.MatchFinished(m, deltas, now))
	return m, nil
}

// ratingFunc rates each player against the plain team means. Sensitivity
// comes from the matches a player had before this one.
func ratingFunc(cfg settings.Settings) club.RatingFunc {
	sensitivity := cfg.Sensitivity()
	logistic := cfg.Logistic()
	return func(teamA, teamB []club.Player, aWon bool) (map[int64]float64, error) {
		ra, err := rating.TeamRating(members(teamA), rating.Bonus{})
		if err != nil {
			return nil, err
		}
		rb, err := rating.TeamRating(members(teamB), rating.Bonus{})
		if err != nil {
			return nil, err
		}
		expectedA, err := rating.ExpectedOutcome(ra, rb, logistic)
		if err != nil {
			return nil, err
		}
		actualA := rating.Loss
		if aWon {
			actualA = rating.Win
		}

		deltas := make(map[int64]float64, len(teamA)+len(teamB))
		for _, pl := range teamA {
			d, err := rating.RatingDelta(pl.Sensitivity(sensitivity), actualA, expectedA)
			if err != nil {
				return nil, err
			}
			deltas[pl.ID] = d
		}
		for _, pl := range teamB {
			d, err := rating.RatingDelta(pl.Sensitivity(sensitivity), rating.Win-actualA, 1-expectedA)
			if err != nil {
				return nil, err
			}
			deltas[pl.ID] = d
		}
		return deltas, nil
	}
}

func members(team []club.Player) []rating.Member {
	out := make([]rating.Member, len(team))
	for i, pl := range team {
		out[i] = pl.Member()
	}
	return out
}

func (p *Processor) StartSession(ctx context.Context) (club.Session, error) {
	s, err := p.store.StartSession(ctx, p.now())
	if err != nil {
		return club.Session{}, err
	}
	log.Info("Session started", "sessionID", s.ID)
	p.publisher.Publish(ctx, events.New(events.SessionChanged, events.SessionChange{Session: s}, s.StartTime))
	return s, nil
}

// EndSession closes the active session and returns the standings of
// everyone who played in it.
func (p *Processor) EndSession(ctx context.Context) (club.Session, []club.Player, error) {
	now := p.now()
	s, err := p.store.EndSession(ctx, now)
	if err != nil {
		return club.Session{}, nil, err
	}
	standings, err := p.standings(ctx)
	if err != nil {
		log.Warn("Failed to compute session standings", "sessionID", s.ID, "error", err)
	}
	log.Info("Session ended", "sessionID", s.ID, "players", len(standings))
	p.publisher.Publish(ctx, events.New(events.SessionChanged, events.SessionChange{Session: s, Standings: standings}, now))
	return s, standings, nil
}

func (p *Processor) CurrentSession(ctx context.Context) (*club.Session, error) {
	return p.store.CurrentSession(ctx)
}

// standings orders the session's players by wins, then rating.
func (p *Processor) standings(ctx context.Context) ([]club.Player, error) {
	players, err := p.store.GetAllPlayers(ctx)
	if err != nil {
		return nil, err
	}
	played := make([]club.Player, 0, len(players))
	for _, pl := range players {
		if pl.SessionMatchesPlayed > 0 {
			played = append(played, pl)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		if played[i].SessionWins != played[j].SessionWins {
			return played[i].SessionWins > played[j].SessionWins
		}
		return played[i].Rating > played[j].Rating
	})
	return played, nil
}
