// Package dbtest starts a throwaway Postgres for store tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"spitr/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type Database struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	URL       string
}

// Start runs a migrated Postgres container for the calling test. Tests are skipped
// under -short.
func Start(t *testing.T) *Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("spitr_test"),
		postgres.WithUsername("spitr"),
		postgres.WithPassword("spitr"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "spitr-store",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	out := &Database{Container: container}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if out.Pool != nil {
			out.Pool.Close()
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	out.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = db.MigrateUp(out.URL)
	require.NoError(t, err)

	out.Pool, err = db.Connect(ctx, out.URL, db.PoolOptions{MaxConns: 8, ApplicationName: "spitr-test"})
	require.NoError(t, err)
	return out
}
