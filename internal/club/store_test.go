package club_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/database"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (club.ClubStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	return club.New(db), db, teardown
}

func addPlayers(t *testing.T, store club.ClubStore, ratings ...float64) []club.Player {
	t.Helper()
	ctx := context.Background()
	players := make([]club.Player, 0, len(ratings))
	for i, r := range ratings {
		p, err := club.NewPlayer(string(rune('A'+i)), "member", "", r)
		require.NoError(t, err)
		p.Active = true
		p, err = store.AddPlayer(ctx, p)
		require.NoError(t, err)
		players = append(players, p)
	}
	return players
}

func ids(players ...club.Player) []int64 {
	out := make([]int64, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestAddAndGetPlayers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	players := addPlayers(t, store, 1500, 1600, 1700)

	got, err := store.GetPlayer(ctx, players[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, 1600.0, got.Rating)
	assert.True(t, got.Active)

	_, err = store.GetPlayer(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	t.Run("GetPlayers keeps input order and skips unknown ids", func(t *testing.T) {
		got, err := store.GetPlayers(ctx, []int64{players[2].ID, 999, players[0].ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "C", got[0].Name)
		assert.Equal(t, "A", got[1].Name)
	})

	t.Run("GetAllPlayers", func(t *testing.T) {
		all, err := store.GetAllPlayers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("SetPlayerActive", func(t *testing.T) {
		require.NoError(t, store.SetPlayerActive(ctx, players[0].ID, false))
		got, err := store.GetPlayer(ctx, players[0].ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.ErrorIs(t, store.SetPlayerActive(ctx, 999, true), errs.ErrNotFound)
	})
}

func TestCourts(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	c1, err := store.AddCourt(ctx, "Court 1")
	require.NoError(t, err)
	_, err = store.AddCourt(ctx, "Court 2")
	require.NoError(t, err)

	_, err = store.AddCourt(ctx, "Court 1")
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = store.AddCourt(ctx, "  ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	courts, err := store.GetCourts(ctx)
	require.NoError(t, err)
	require.Len(t, courts, 2)
	assert.Equal(t, c1.ID, courts[0].ID)
}

func TestMatchLifecycle(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500, 1500, 1500)
	court, err := store.AddCourt(ctx, "Court 1")
	require.NoError(t, err)

	m, err := store.CreateMatch(ctx, &court.ID, ids(p[0], p[1]), ids(p[2], p[3]), t0)
	require.NoError(t, err)
	assert.Equal(t, club.StatusQueued, m.Status)
	require.Len(t, m.TeamA, 2)
	require.Len(t, m.TeamB, 2)
	assert.Equal(t, "A", m.TeamA[0].Name)
	assert.Equal(t, "Court 1", m.CourtName)

	queued, err := store.ListMatches(ctx, club.StatusQueued)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	_, err = store.FinishMatch(ctx, club.FinishRequest{MatchID: m.ID, ScoreA: 21, ScoreB: 10, Now: t0})
	assert.ErrorIs(t, err, errs.ErrInvalidState, "a queued match cannot be finished")

	m, err = store.BeginMatch(ctx, m.ID, nil, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, club.StatusOngoing, m.Status)
	require.NotNil(t, m.StartTime)
	assert.Equal(t, t0.Add(time.Minute).Unix(), m.StartTime.Unix())
	assert.Equal(t, 1, m.TeamA[0].ConsecutiveMatches)

	courts, err := store.GetCourts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, courts[0].SessionTurns)

	free, err := store.GetFreeCourts(ctx)
	require.NoError(t, err)
	assert.Empty(t, free)

	eligible, err := store.GetEligiblePlayers(ctx, ids(p...), 2)
	require.NoError(t, err)
	assert.Empty(t, eligible, "players on court are not eligible")

	rate := func(teamA, teamB []club.Player, aWon bool) (map[int64]float64, error) {
		assert.True(t, aWon)
		assert.Equal(t, 1500.0, teamA[0].Rating, "rating callback sees pre-match rows")
		return map[int64]float64{
			teamA[0].ID: 24, teamA[1].ID: 24,
			teamB[0].ID: -24, teamB[1].ID: -24,
		}, nil
	}
	m, err = store.FinishMatch(ctx, club.FinishRequest{MatchID: m.ID, ScoreA: 21, ScoreB: 15, Now: t0.Add(30 * time.Minute), Rate: rate})
	require.NoError(t, err)
	assert.Equal(t, club.StatusFinished, m.Status)
	assert.Equal(t, club.SideA, m.WinningTeam)
	require.NotNil(t, m.ScoreA)
	assert.Equal(t, 21, *m.ScoreA)
	assert.Equal(t, 15, *m.ScoreB)
	assert.Equal(t, 1524.0, m.TeamA[0].Rating)
	assert.Equal(t, 1476.0, m.TeamB[1].Rating)
	assert.Equal(t, 1, m.TeamA[0].Wins)
	assert.Equal(t, 0, m.TeamB[0].Wins)
	assert.Equal(t, 1, m.TeamB[0].MatchesPlayed)
	require.NotNil(t, m.TeamA[0].LastPlayed)

	t.Run("finish happens exactly once", func(t *testing.T) {
		_, err := store.FinishMatch(ctx, club.FinishRequest{MatchID: m.ID, ScoreA: 21, ScoreB: 15, Now: t0, Rate: rate})
		assert.ErrorIs(t, err, errs.ErrInvalidState)
		got, err := store.GetPlayer(ctx, p[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1524.0, got.Rating)
	})

	t.Run("pair history counts teammates only", func(t *testing.T) {
		counts, err := store.PairCounts(ctx, ids(p...))
		require.NoError(t, err)
		assert.Equal(t, 1, counts.TimesPlayedTogether(p[1].ID, p[0].ID))
		assert.Equal(t, 1, counts.TimesPlayedTogether(p[2].ID, p[3].ID))
		assert.Equal(t, 0, counts.TimesPlayedTogether(p[0].ID, p[2].ID))

		h, err := store.GetPairHistory(ctx, p[1].ID, p[0].ID)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, p[0].ID, h.Player1ID)
		assert.Equal(t, t0.Add(30*time.Minute).Unix(), h.LastPlayedTogether.Unix())

		h, err = store.GetPairHistory(ctx, p[0].ID, p[3].ID)
		require.NoError(t, err)
		assert.Nil(t, h)
	})

	t.Run("finished list", func(t *testing.T) {
		finished, err := store.ListMatches(ctx, club.StatusFinished)
		require.NoError(t, err)
		require.Len(t, finished, 1)
		assert.Equal(t, m.ID, finished[0].ID)

		_, err = store.ListMatches(ctx, club.MatchStatus("paused"))
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestBeginMatch_CourtBusy(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500)
	court, err := store.AddCourt(ctx, "Court 1")
	require.NoError(t, err)

	first, err := store.CreateMatch(ctx, &court.ID, ids(p[0], p[1]), ids(p[2], p[3]), t0)
	require.NoError(t, err)
	second, err := store.CreateMatch(ctx, &court.ID, ids(p[4], p[5]), ids(p[6], p[7]), t0)
	require.NoError(t, err)

	_, err = store.BeginMatch(ctx, first.ID, nil, t0)
	require.NoError(t, err)

	_, err = store.BeginMatch(ctx, second.ID, nil, t0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.ErrorIs(t, err, errs.ErrCourtBusy)

	got, err := store.GetMatch(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, club.StatusQueued, got.Status, "a rejected begin changes nothing")
	assert.Equal(t, 0, got.TeamA[0].ConsecutiveMatches)

	_, err = store.BeginMatch(ctx, 999, nil, t0)
	assert.ErrorIs(t, err, errs.ErrMatchNotFound)
}

func TestBeginMatch_RequiresCourt(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500)
	m, err := store.CreateMatch(ctx, nil, ids(p[0]), ids(p[1]), t0)
	require.NoError(t, err)
	assert.Nil(t, m.CourtID)

	_, err = store.BeginMatch(ctx, m.ID, nil, t0)
	assert.ErrorIs(t, err, errs.ErrValidation)

	court, err := store.AddCourt(ctx, "Court 1")
	require.NoError(t, err)
	m, err = store.BeginMatch(ctx, m.ID, &court.ID, t0)
	require.NoError(t, err)
	require.NotNil(t, m.CourtID)
	assert.Equal(t, court.ID, *m.CourtID)
}

func TestCreateMatch_Validation(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500, 1500)

	testCases := []struct {
		name  string
		teamA []int64
		teamB []int64
		want  error
	}{
		{"empty team", nil, ids(p[0]), errs.ErrInvalidTeamSize},
		{"three players", ids(p[0], p[1], p[2]), ids(p[0]), errs.ErrInvalidTeamSize},
		{"duplicate player", ids(p[0], p[1]), ids(p[1]), errs.ErrDuplicatePlayer},
		{"unknown player", ids(p[0]), []int64{999}, errs.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateMatch(ctx, nil, tc.teamA, tc.teamB, t0)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	queued, err := store.ListMatches(ctx, club.StatusQueued)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func TestFinishMatch_RollsBackOnRatingError(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500, 1500, 1500)
	court, err := store.AddCourt(ctx, "Court 1")
	require.NoError(t, err)
	m, err := store.CreateMatch(ctx, &court.ID, ids(p[0], p[1]), ids(p[2], p[3]), t0)
	require.NoError(t, err)
	_, err = store.BeginMatch(ctx, m.ID, nil, t0)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.FinishMatch(ctx, club.FinishRequest{MatchID: m.ID, ScoreA: 21, ScoreB: 19, Now: t0,
		Rate: func(_, _ []club.Player, _ bool) (map[int64]float64, error) { return nil, boom }})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, club.StatusOngoing, got.Status)
	assert.Equal(t, 0, got.TeamA[0].MatchesPlayed)

	_, err = store.FinishMatch(ctx, club.FinishRequest{MatchID: m.ID, ScoreA: 21, ScoreB: 21, Now: t0})
	assert.ErrorIs(t, err, errs.ErrInvalidScore)
}

func TestEligibilityAndRestSweep(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500, 1500, 1500)
	_, err := db.Exec("UPDATE players SET consecutive_matches = 2 WHERE id = ?", p[0].ID)
	require.NoError(t, err)

	eligible, err := store.GetEligiblePlayers(ctx, ids(p...), 2)
	require.NoError(t, err)
	assert.Equal(t, ids(p[1], p[2]), ids(eligible...))

	n, err := store.ResetRestedPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	eligible, err = store.GetEligiblePlayers(ctx, ids(p...), 2)
	require.NoError(t, err)
	assert.Len(t, eligible, 3)
}

func TestSessions(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	p := addPlayers(t, store, 1500)
	_, err := db.Exec("UPDATE players SET session_wins = 3, consecutive_matches = 1 WHERE id = ?", p[0].ID)
	require.NoError(t, err)

	current, err := store.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = store.EndSession(ctx, t0)
	assert.ErrorIs(t, err, errs.ErrNoActiveSession)

	sess, err := store.StartSession(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, "active", sess.Status)

	got, err := store.GetPlayer(ctx, p[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SessionWins)
	assert.Equal(t, 0, got.ConsecutiveMatches)

	_, err = store.StartSession(ctx, t0)
	assert.ErrorIs(t, err, errs.ErrSessionActive)

	current, err = store.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, sess.ID, current.ID)

	ended, err := store.EndSession(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "ended", ended.Status)
	require.NotNil(t, ended.EndTime)

	got, err = store.GetPlayer(ctx, p[0].ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
