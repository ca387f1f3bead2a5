package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"players", "courts", "matches", "match_players", "pair_history", "sessions", "settings", "scoreboards"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_EnforcesCanonicalPairOrder(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO players (id, name) VALUES (1, 'a'), (2, 'b')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO pair_history (player1_id, player2_id, last_played_together) VALUES (2, 1, 0)`)
	assert.Error(t, err, "pairs must be stored with the smaller id first")

	_, err = db.Exec(`INSERT INTO pair_history (player1_id, player2_id, last_played_together) VALUES (1, 2, 0)`)
	assert.NoError(t, err)
}

func TestInitDB_FileDatabaseIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "club.db")

	db, teardown, err := InitDB(path, "", "", "../../migrations")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO courts (name) VALUES ('Court 1')`)
	require.NoError(t, err)
	teardown()

	db, teardown, err = InitDB(path, "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM courts`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInitDB_MissingMigrations(t *testing.T) {
	_, _, err := InitDB(":memory:", "", "", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
