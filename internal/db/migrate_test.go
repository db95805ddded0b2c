package db_test

import (
	"context"
	"testing"

	"spitr/internal/db"
	"spitr/internal/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsRoundTrip(t *testing.T) {
	tdb := dbtest.Start(t)

	status, err := db.Status(tdb.URL)
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.False(t, status.Dirty)
	assert.Equal(t, uint(1), status.Version)

	changed, err := db.MigrateUp(tdb.URL)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, db.MigrateDown(tdb.URL, 1))
	status, err = db.Status(tdb.URL)
	require.NoError(t, err)
	assert.False(t, status.Applied)

	changed, err = db.MigrateUp(tdb.URL)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestPerformAttackClampsAndLogs(t *testing.T) {
	tdb := dbtest.Start(t)
	ctx := context.Background()

	_, err := tdb.Pool.Exec(ctx, `
		INSERT INTO users (id, username, hp) VALUES ('a', 'alice', 5000), ('b', 'bob', 30)
	`)
	require.NoError(t, err)

	var hp int64
	var destroyed bool
	err = tdb.Pool.QueryRow(ctx, `SELECT out_hp, out_destroyed FROM perform_attack('a', 'b', NULL, 25, 'gun')`).Scan(&hp, &destroyed)
	require.NoError(t, err)
	assert.Equal(t, int64(5), hp)
	assert.False(t, destroyed)

	err = tdb.Pool.QueryRow(ctx, `SELECT out_hp, out_destroyed FROM perform_attack('a', 'b', NULL, 25, 'gun')`).Scan(&hp, &destroyed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), hp)
	assert.True(t, destroyed)

	var logged int
	require.NoError(t, tdb.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM attack_log WHERE target_user_id = 'b'`).Scan(&logged))
	assert.Equal(t, 2, logged)

	_, err = tdb.Pool.Exec(ctx, `SELECT * FROM perform_attack('a', 'nobody', NULL, 5, 'knife')`)
	assert.Error(t, err)
}
