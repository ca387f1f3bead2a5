package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/database"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/mauv0809/openplay/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)

type fixture struct {
	proc    *Processor
	store   club.ClubStore
	pub     *notifier.Mock
	metrics *metrics.Mock
	players []club.Player
	courts  []club.Court
}

// setup creates a processor over a fresh database holding the given player
// ratings and two courts.
func setup(t *testing.T, ratings ...float64) *fixture {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	ctx := context.Background()
	store := club.New(db)
	f := &fixture{store: store, pub: notifier.NewMock(), metrics: metrics.NewMock()}
	for i, r := range ratings {
		p, err := club.NewPlayer(string(rune('A'+i)), "member", "", r)
		require.NoError(t, err)
		p.Active = true
		p, err = store.AddPlayer(ctx, p)
		require.NoError(t, err)
		f.players = append(f.players, p)
	}
	for _, name := range []string{"Court 1", "Court 2"} {
		c, err := store.AddCourt(ctx, name)
		require.NoError(t, err)
		f.courts = append(f.courts, c)
	}
	f.proc = New(store, settings.NewMock(), f.pub, f.metrics)
	f.proc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) ids(idx ...int) []int64 {
	out := make([]int64, len(idx))
	for i, n := range idx {
		out[i] = f.players[n].ID
	}
	return out
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("balanced split for a single group", func(t *testing.T) {
		f := setup(t, 1500, 1700, 1500, 1700)
		got, err := f.proc.Suggest(ctx, SuggestRequest{PlayerIDs: f.ids(0, 1, 2, 3)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 0.0, got[0].BalanceScore)
		assert.Equal(t, f.courts[0].ID, got[0].Court.ID)
		assert.Equal(t, 1, f.metrics.SuggestionsRequested())
		assert.Equal(t, 1, f.metrics.SuggestionsProduced())
		assert.Len(t, f.metrics.SuggestionDurations(), 1)
	})

	t.Run("fewer than four players is empty, not an error", func(t *testing.T) {
		f := setup(t, 1500, 1500, 1500)
		got, err := f.proc.Suggest(ctx, SuggestRequest{PlayerIDs: f.ids(0, 1, 2)})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		f := setup(t, 1500, 1500, 1500, 1500)
		_, err := f.proc.Suggest(ctx, SuggestRequest{PlayerIDs: f.ids(0, 1, 2, 2)})
		assert.ErrorIs(t, err, errs.ErrDuplicatePlayer)
	})

	t.Run("players on court and busy courts are excluded", func(t *testing.T) {
		f := setup(t, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500)
		m, err := f.proc.CreateMatch(ctx, &f.courts[0].ID, f.ids(0, 1), f.ids(2, 3))
		require.NoError(t, err)
		_, err = f.proc.BeginMatch(ctx, m.ID, nil)
		require.NoError(t, err)

		got, err := f.proc.Suggest(ctx, SuggestRequest{PlayerIDs: f.ids(0, 1, 2, 3, 4, 5, 6, 7), Rules: matchmaking.DefaultRules()})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, f.courts[1].ID, got[0].Court.ID)
		for _, p := range append(got[0].TeamA, got[0].TeamB...) {
			assert.NotContains(t, f.ids(0, 1, 2, 3), p.ID)
		}
	})

	t.Run("settings failure is surfaced", func(t *testing.T) {
		f := setup(t, 1500, 1500, 1500, 1500)
		mock := settings.NewMock()
		mock.GetFunc = func() (settings.Settings, error) { return settings.Settings{}, errs.Storage(errors.New("down"), "failed to read settings") }
		f.proc.settings = mock
		_, err := f.proc.Suggest(ctx, SuggestRequest{PlayerIDs: f.ids(0, 1, 2, 3)})
		assert.ErrorIs(t, err, errs.ErrStorage)
	})
}

func TestMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 1500, 1500, 1500, 1500)

	m, err := f.proc.CreateMatch(ctx, &f.courts[0].ID, f.ids(0, 1), f.ids(2, 3))
	require.NoError(t, err)
	assert.Equal(t, club.StatusQueued, m.Status)

	m, err = f.proc.BeginMatch(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, club.StatusOngoing, m.Status)
	assert.Equal(t, 1, f.metrics.MatchesBegun())

	t.Run("tie is rejected before anything changes", func(t *testing.T) {
		_, err := f.proc.FinishMatch(ctx, m.ID, 21, 21)
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.ErrorIs(t, err, errs.ErrInvalidScore)
		got, err := f.store.GetMatch(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, club.StatusOngoing, got.Status)
	})

	finished, err := f.proc.FinishMatch(ctx, m.ID, 21, 15)
	require.NoError(t, err)
	assert.Equal(t, club.StatusFinished, finished.Status)
	assert.Equal(t, club.SideA, finished.WinningTeam)
	assert.Equal(t, 1, f.metrics.MatchesFinished())

	// Equal teams, new players: 48 * (1 - 0.5).
	for _, p := range finished.TeamA {
		assert.InDelta(t, 1524, p.Rating, 1e-9)
	}
	for _, p := range finished.TeamB {
		assert.InDelta(t, 1476, p.Rating, 1e-9)
	}

	t.Run("finishing twice is rejected", func(t *testing.T) {
		_, err := f.proc.FinishMatch(ctx, m.ID, 21, 10)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Equal(t, 1, f.metrics.MatchesFinished())
	})

	published := f.pub.Published()
	require.Len(t, published, 3)
	var states []club.MatchStatus
	for _, ev := range published {
		assert.Equal(t, events.MatchStateChanged, ev.Name)
		states = append(states, ev.Payload.(events.MatchChange).To)
	}
	assert.Equal(t, []club.MatchStatus{club.StatusQueued, club.StatusOngoing, club.StatusFinished}, states)

	change := published[2].Payload.(events.MatchChange)
	require.Len(t, change.Deltas, 4)
	var sum float64
	for _, d := range change.Deltas {
		sum += d
	}
	assert.InDelta(t, 0, sum, 1e-9, "equal sensitivities make the match zero-sum")
}

func TestBeginMatch_CourtBusy(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500)

	first, err := f.proc.CreateMatch(ctx, &f.courts[0].ID, f.ids(0, 1), f.ids(2, 3))
	require.NoError(t, err)
	first, err = f.proc.BeginMatch(ctx, first.ID, nil)
	require.NoError(t, err)

	second, err := f.proc.CreateMatch(ctx, nil, f.ids(4, 5), f.ids(6, 7))
	require.NoError(t, err)
	f.pub.Reset()

	_, err = f.proc.BeginMatch(ctx, second.ID, &f.courts[0].ID)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.ErrorIs(t, err, errs.ErrCourtBusy)
	assert.Empty(t, f.pub.Published(), "a rejected begin publishes nothing")

	got, err := f.store.GetMatch(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, club.StatusOngoing, got.Status)
	assert.Equal(t, first.StartTime, got.StartTime)

	got, err = f.store.GetMatch(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, club.StatusQueued, got.Status)
}

func TestConcurrentBeginAndFinish(t *testing.T) {
	ctx := context.Background()
	ratings := make([]float64, 16)
	for i := range ratings {
		ratings[i] = 1500
	}
	f := setup(t, ratings...)

	queued := make([]club.Match, 4)
	for i := range queued {
		m, err := f.proc.CreateMatch(ctx, &f.courts[0].ID, f.ids(4*i, 4*i+1), f.ids(4*i+2, 4*i+3))
		require.NoError(t, err)
		queued[i] = m
	}

	beginErrs := make([]error, len(queued))
	var wg sync.WaitGroup
	for i, m := range queued {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, beginErrs[i] = f.proc.BeginMatch(ctx, id, nil)
		}(i, m.ID)
	}
	wg.Wait()

	var started []int64
	for i, err := range beginErrs {
		if err == nil {
			started = append(started, queued[i].ID)
			continue
		}
		assert.ErrorIs(t, err, errs.ErrCourtBusy)
	}
	require.Len(t, started, 1, "only one match may take the court")
	assert.Equal(t, 1, f.metrics.MatchesBegun())

	ongoing, err := f.store.ListMatches(ctx, club.StatusOngoing)
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, started[0], ongoing[0].ID)

	const finishers = 8
	finishErrs := make([]error, finishers)
	for i := 0; i < finishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, finishErrs[i] = f.proc.FinishMatch(ctx, started[0], 21, 15)
		}(i)
	}
	wg.Wait()

	var finished int
	for _, err := range finishErrs {
		if err == nil {
			finished++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	}
	assert.Equal(t, 1, finished, "a match is finished exactly once")
	assert.Equal(t, 1, f.metrics.MatchesFinished())

	m, err := f.store.GetMatch(ctx, started[0])
	require.NoError(t, err)
	for _, p := range m.TeamA {
		pl, err := f.store.GetPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1524, pl.Rating, 1e-9, "the rating change is applied once")
		assert.Equal(t, 1, pl.MatchesPlayed)
	}
	for _, p := range m.TeamB {
		pl, err := f.store.GetPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1476, pl.Rating, 1e-9)
		assert.Equal(t, 1, pl.MatchesPlayed)
	}
	pair, err := f.store.GetPairHistory(ctx, m.TeamA[0].ID, m.TeamA[1].ID)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, 1, pair.TimesPlayed)
}

func TestRatingFunc(t *testing.T) {
	rate := ratingFunc(settings.Defaults())

	t.Run("sensitivity follows each player's history", func(t *testing.T) {
		teamA := []club.Player{{ID: 1, Rating: 1500}, {ID: 2, Rating: 1500, MatchesPlayed: 60}}
		teamB := []club.Player{{ID: 3, Rating: 1500, MatchesPlayed: 30}, {ID: 4, Rating: 1500}}
		deltas, err := rate(teamA, teamB, false)
		require.NoError(t, err)
		assert.InDelta(t, -24, deltas[1], 1e-9)
		assert.InDelta(t, -12, deltas[2], 1e-9)
		assert.InDelta(t, 16, deltas[3], 1e-9)
		assert.InDelta(t, 24, deltas[4], 1e-9)
	})

	t.Run("favourite gains less for winning", func(t *testing.T) {
		teamA := []club.Player{{ID: 1, Rating: 1700}, {ID: 2, Rating: 1700}}
		teamB := []club.Player{{ID: 3, Rating: 1500}, {ID: 4, Rating: 1500}}
		deltas, err := rate(teamA, teamB, true)
		require.NoError(t, err)
		assert.Less(t, deltas[1], 24.0)
		assert.Greater(t, deltas[1], 0.0)
		assert.InDelta(t, -deltas[1], deltas[3], 1e-9)
	})

	t.Run("category does not affect the stored rating", func(t *testing.T) {
		teamA := []club.Player{{ID: 1, Rating: 1500, Category: "female"}, {ID: 2, Rating: 1500}}
		teamB := []club.Player{{ID: 3, Rating: 1500}, {ID: 4, Rating: 1500}}
		deltas, err := rate(teamA, teamB, true)
		require.NoError(t, err)
		assert.InDelta(t, 24, deltas[1], 1e-9)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 1500, 1500, 1500, 1500, 1500)

	s, err := f.proc.StartSession(ctx)
	require.NoError(t, err)
	current, err := f.proc.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, s.ID, current.ID)

	_, err = f.proc.StartSession(ctx)
	assert.ErrorIs(t, err, errs.ErrSessionActive)

	m, err := f.proc.CreateMatch(ctx, &f.courts[0].ID, f.ids(0, 1), f.ids(2, 3))
	require.NoError(t, err)
	_, err = f.proc.BeginMatch(ctx, m.ID, nil)
	require.NoError(t, err)
	_, err = f.proc.FinishMatch(ctx, m.ID, 15, 21)
	require.NoError(t, err)
	f.pub.Reset()

	ended, standings, err := f.proc.EndSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, ended.EndTime)
	require.Len(t, standings, 4, "the player who sat out is not ranked")
	assert.ElementsMatch(t, f.ids(2, 3), []int64{standings[0].ID, standings[1].ID})
	assert.Equal(t, 1, standings[0].SessionWins)

	published := f.pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.SessionChanged, published[0].Name)
	assert.Len(t, published[0].Payload.(events.SessionChange).Standings, 4)

	_, _, err = f.proc.EndSession(ctx)
	assert.ErrorIs(t, err, errs.ErrNoActiveSession)
}
