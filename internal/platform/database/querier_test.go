package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/navgate/internal/platform/database"
)

// Verify the Querier interface is satisfied by pgx types.
var (
	_ database.Querier    = (*pgx.Conn)(nil)
	_ database.Querier    = (pgx.Tx)(nil)
	_ database.TxBeginner = (*database.Pool)(nil)
)

func TestWithTx_CommitAndRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	connStr, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	pool, err := database.Connect(ctx, connStr, database.WithMaxConns(2))
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, "CREATE TABLE items (name TEXT PRIMARY KEY)")
	require.NoError(t, err)

	err = database.WithTx(ctx, pool, pgx.TxOptions{}, func(ctx context.Context, q database.Querier) error {
		_, execErr := q.Exec(ctx, "INSERT INTO items (name) VALUES ('kept')")
		return execErr
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = database.WithTx(ctx, pool, pgx.TxOptions{}, func(ctx context.Context, q database.Querier) error {
		_, execErr := q.Exec(ctx, "INSERT INTO items (name) VALUES ('dropped')")
		require.NoError(t, execErr)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTx_ReadOnlySnapshotRejectsWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	connStr, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	pool, err := database.Connect(ctx, connStr, database.WithMaxConns(2))
	require.NoError(t, err)
	defer pool.Close()

	err = database.WithTx(ctx, pool, database.ReadOnlySnapshot, func(ctx context.Context, q database.Querier) error {
		_, execErr := q.Exec(ctx, "CREATE TABLE nope (id INT)")
		return execErr
	})
	assert.Error(t, err)
}
