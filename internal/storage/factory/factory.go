package factory

import (
	"context"
	"fmt"

	"github.com/crehub/news-digest/internal/storage"
	"github.com/crehub/news-digest/internal/storage/in_mem"
	"github.com/crehub/news-digest/internal/storage/pg"
	"github.com/crehub/news-digest/pkg/server"
)

// Storage bundles the store with its health check and cleanup.
type Storage struct {
	Store  storage.Store
	Health server.HealthChecker
	Close  func()
}

// NewStorage opens the configured store. PostgreSQL is migrated before it is returned.
func NewStorage(ctx context.Context, cfg *StorageConfig) (*Storage, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("postgres storage selected without a connection string")
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		if err := pg.Migrate(ctx, pool.GetConn()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate PostgreSQL schema: %w", err)
		}
		return &Storage{
			Store:  pg.NewStoreFromPool(pool),
			Health: pg.NewHealthChecker(pool),
			Close:  pool.Close,
		}, nil

	case storage.InMem:
		return &Storage{
			Store:  in_mem.NewStore(),
			Health: server.NewOkHealthChecker(),
			Close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStorer), cfg.Type)
	}
}
