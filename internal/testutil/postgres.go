// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/campus-orgs/backend/pkg/database"
)

// NewPostgres starts a PostgreSQL container, applies the embedded migrations and
// returns a pool. The test is skipped in short mode or when Docker is unavailable.
func NewPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "campus_orgs",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/campus_orgs?sslmode=disable", host, port.Port())
	require.NoError(t, database.Migrate(dsn, zap.NewNop()))

	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 8}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// Reset empties every table between subtests sharing one container.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		TRUNCATE event_attendees, event_category_links, event_categories, events, locations,
		         user_organizations, roles, organizations, credentials, users CASCADE`)
	require.NoError(t, err)
}

// InsertUser creates a user with credentials and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, name, username string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		name, username+"@example.edu",
	).Scan(&id)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO credentials (user_id, username, password_hash) VALUES ($1, $2, 'x')`,
		id, username,
	)
	require.NoError(t, err)
	return id
}

// Count returns SELECT COUNT(*) for the given query.
func Count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
