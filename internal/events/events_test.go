package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchChanged(t *testing.T) {
	at := time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)
	m := club.Match{ID: 7, Status: club.StatusOngoing}

	a := MatchChanged(m, club.StatusQueued, at)
	b := MatchChanged(m, club.StatusQueued, at)

	assert.Equal(t, MatchStateChanged, a.Name)
	assert.Equal(t, at, a.OccurredAt)
	assert.NotEqual(t, a.ID, b.ID, "every event gets its own id")

	change, ok := a.Payload.(MatchChange)
	assert.True(t, ok)
	assert.Equal(t, int64(7), change.MatchID)
	assert.Equal(t, club.StatusQueued, change.From)
	assert.Equal(t, club.StatusOngoing, change.To)
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)

	t.Run("unassigned board sends a null device id", func(t *testing.T) {
		data, err := json.Marshal(New(ScoreboardAssignmentChanged, AssignmentChange{CourtID: 2}, at))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"event":"scoreboard_assignment_changed"`)
		assert.Contains(t, string(data), `"data":{"court_id":2,"device_id":null}`)
	})

	t.Run("score payload uses team letters", func(t *testing.T) {
		data, err := json.Marshal(ScoreChange{CourtID: 1, ScoreA: 11, ScoreB: 9})
		require.NoError(t, err)
		assert.JSONEq(t, `{"court_id":1,"score_A":11,"score_B":9}`, string(data))
	})
}
