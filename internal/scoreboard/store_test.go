package scoreboard

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/openplay/internal/database"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	_, err = db.Exec(`INSERT INTO courts (id, name) VALUES (1, 'Court 1'), (2, 'Court 2')`)
	require.NoError(t, err)
	return db
}

func TestReportScore(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	t.Run("first report registers the device", func(t *testing.T) {
		b, err := s.ReportScore(ctx, Report{DeviceID: "esp-1", ScoreA: 3, ScoreB: 1}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "esp-1", b.DeviceID)
		assert.Nil(t, b.CourtID)
		assert.Equal(t, 3, b.ScoreA)
		assert.Equal(t, UpdatedByDevice, b.UpdatedBy)
		require.NotNil(t, b.LastSeen)
		assert.Equal(t, testNow.Unix(), b.LastSeen.Unix())
	})

	t.Run("later reports overwrite the score", func(t *testing.T) {
		b, err := s.ReportScore(ctx, Report{DeviceID: "esp-1", ScoreA: 4, ScoreB: 2}, testNow.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 4, b.ScoreA)
		assert.Equal(t, 2, b.ScoreB)

		boards, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, boards, 1)
	})

	t.Run("invalid reports are rejected", func(t *testing.T) {
		_, err := s.ReportScore(ctx, Report{DeviceID: " ", ScoreA: 1}, testNow)
		assert.ErrorIs(t, err, errs.ErrValidation)
		_, err = s.ReportScore(ctx, Report{DeviceID: "esp-1", ScoreA: -1}, testNow)
		assert.ErrorIs(t, err, errs.ErrInvalidScore)
	})
}

func TestAssign(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	for _, id := range []string{"esp-1", "esp-2"} {
		_, err := s.ReportScore(ctx, Report{DeviceID: id}, testNow)
		require.NoError(t, err)
	}

	require.NoError(t, s.Assign(ctx, "esp-1", 1))

	t.Run("assigning a second board to the court replaces the first", func(t *testing.T) {
		require.NoError(t, s.Assign(ctx, "esp-2", 1))

		boards, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, boards, 2)
		assert.Nil(t, boards[0].CourtID, "esp-1 was unassigned")
		require.NotNil(t, boards[1].CourtID)
		assert.Equal(t, int64(1), *boards[1].CourtID)
	})

	t.Run("unknown court or device is not found", func(t *testing.T) {
		assert.ErrorIs(t, s.Assign(ctx, "esp-1", 99), errs.ErrNotFound)
		assert.ErrorIs(t, s.Assign(ctx, "nope", 2), errs.ErrNotFound)
	})

	t.Run("a failed assignment leaves the court untouched", func(t *testing.T) {
		assert.ErrorIs(t, s.Assign(ctx, "nope", 1), errs.ErrNotFound)
		boards, err := s.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, boards[1].CourtID)
	})

	t.Run("unassign clears the court", func(t *testing.T) {
		require.NoError(t, s.Unassign(ctx, 1))
		require.NoError(t, s.Unassign(ctx, 1), "unassigning an empty court is fine")
		boards, err := s.List(ctx)
		require.NoError(t, err)
		for _, b := range boards {
			assert.Nil(t, b.CourtID)
		}
	})
}

func TestControlAndSwap(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()
	_, err := s.ReportScore(ctx, Report{DeviceID: "esp-1", ScoreA: 1, ScoreB: 0}, testNow)
	require.NoError(t, err)
	require.NoError(t, s.Assign(ctx, "esp-1", 2))

	steps := []struct {
		action Action
		a, b   int
	}{
		{IncA, 2, 0},
		{IncB, 2, 1},
		{DecB, 2, 0},
		{DecB, 2, 0},
		{DecA, 1, 0},
		{Reset, 0, 0},
		{DecA, 0, 0},
	}
	for _, step := range steps {
		b, err := s.Control(ctx, 2, step.action)
		require.NoError(t, err, step.action)
		assert.Equal(t, step.a, b.ScoreA, step.action)
		assert.Equal(t, step.b, b.ScoreB, step.action)
		assert.Equal(t, UpdatedByWeb, b.UpdatedBy)
	}

	_, err = s.Control(ctx, 2, Action("double"))
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.Control(ctx, 1, IncA)
	assert.ErrorIs(t, err, errs.ErrNotFound, "no board on court 1")

	b, err := s.ToggleSwap(ctx, 2)
	require.NoError(t, err)
	assert.True(t, b.IsSwapped)
	b, err = s.ToggleSwap(ctx, 2)
	require.NoError(t, err)
	assert.False(t, b.IsSwapped)

	_, err = s.ToggleSwap(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
