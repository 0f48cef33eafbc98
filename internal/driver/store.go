package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
)

// Open connects the configured catalog backend and ensures its schema.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (CatalogStore, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	logger = logger.With().Str("component", "store").Str("backend", backend).Logger()

	var (
		store CatalogStore
		err   error
	)
	switch backend {
	case "memory":
		store = NewMemoryStore()
	case "sqlite":
		store, err = OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres":
		store, err = OpenPostgres(ctx, cfg.PostgresDSN)
	case "memgraph":
		var d *MemgraphDriver
		d, err = NewMemgraphDriver(ctx, cfg.Memgraph, logger)
		if err == nil {
			store = NewMemgraphStore(d)
			err = store.BuildIndices(ctx)
		}
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	logger.Info().Msg("catalog store ready")
	return store, nil
}
