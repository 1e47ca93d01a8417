// Package dbtest prepares a migrated Postgres database for repository tests.
// Tests using it are skipped unless TEST_DB_DSN is set.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/db"
)

const testLockKey = 7_130_420

// Open connects to TEST_DB_DSN, applies migrations and empties every table.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	loadEnv()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// Packages run in parallel against the same database; hold a session lock for the whole test.
	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", testLockKey)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", testLockKey)
		conn.Release()
	})

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE TABLE public.closures, public.reservations, public.doctors, public.venues CASCADE")
	require.NoError(t, err)

	return pool
}

// loadEnv looks for a .env file in the working directory and its parents.
func loadEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// SeedVenue inserts a venue and returns its id.
func SeedVenue(t *testing.T, pool *pgxpool.Pool, name string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		"INSERT INTO public.venues (name) VALUES ($1) RETURNING id", name).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedDoctor inserts a doctor under venueID and returns its id.
func SeedDoctor(t *testing.T, pool *pgxpool.Pool, venueID, name string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		"INSERT INTO public.doctors (venue_id, name) VALUES ($1, $2) RETURNING id", venueID, name).Scan(&id)
	require.NoError(t, err)
	return id
}
