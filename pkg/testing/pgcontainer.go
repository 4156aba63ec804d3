// Package testing starts throwaway containers for integration tests.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/crehub/news-digest/internal/storage/pg"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:17.5"
	pgDatabase = "news_digest_test"
)

// PGContainer is a migrated PostgreSQL instance together with a pool connected to it.
type PGContainer struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pg.ConnectionPool
}

// NewPGContainerWithCleanup starts PostgreSQL, applies the embedded schema and tears
// everything down when tb finishes.
func NewPGContainerWithCleanup(ctx context.Context, tb testing.TB) *PGContainer {
	tb.Helper()

	container, err := postgres.Run(ctx, pgImage,
		postgres.WithDatabase(pgDatabase),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start postgres container: %v", err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: connStr})
	if err != nil {
		tb.Fatalf("failed to connect to postgres container: %v", err)
	}
	tb.Cleanup(pool.Close)

	if err := pg.Migrate(ctx, pool.GetConn()); err != nil {
		tb.Fatalf("failed to migrate postgres container: %v", err)
	}

	return &PGContainer{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
	}
}
