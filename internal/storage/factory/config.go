package factory

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/crehub/news-digest/internal/storage"
	"github.com/crehub/news-digest/internal/storage/es"
	"github.com/crehub/news-digest/internal/storage/pg"
	"github.com/crehub/news-digest/pkg/config/env"
	"github.com/crehub/news-digest/pkg/stringsutil"
)

type StorageConfig struct {
	storage.Type
	Pg *pg.PoolConfig
	// Es is nil when search indexing is disabled.
	Es *es.ClientConfig
}

// LoadEnv picks PostgreSQL when PG_CONNECTION_STRING is set and the in-memory store otherwise.
func LoadEnv() *StorageConfig {
	cfg := &StorageConfig{Type: storage.InMem}

	if connStr := strings.TrimSpace(os.Getenv("PG_CONNECTION_STRING")); connStr != "" {
		cfg.Type = storage.PG
		cfg.Pg = &pg.PoolConfig{ConnStr: connStr}
		if n, err := strconv.Atoi(os.Getenv("PG_MAX_CONNS")); err == nil && n > 0 {
			cfg.Pg.MaxConns = int32(n)
		}
	} else {
		slog.Warn("PG_CONNECTION_STRING is not set, using in-memory storage")
	}

	if addrs := stringsutil.SplitTrim(os.Getenv("ES_ADDRESSES"), ","); len(addrs) > 0 {
		cfg.Es = &es.ClientConfig{
			Addresses: addrs,
			IndexName: env.StringOr("ES_INDEX_NAME", es.DefaultIndexName),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
	}

	return cfg
}
