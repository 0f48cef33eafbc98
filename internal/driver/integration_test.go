//go:build integration

package driver

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/posterlens/internal/config"
)

// Run with: go test -tags integration ./internal/driver/
// POSTGRES_DSN and MEMGRAPH_URI must point at disposable databases.

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close(ctx)
	_, err = store.pool.Exec(ctx, "TRUNCATE events")
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestMemgraphStoreIntegration(t *testing.T) {
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("MEMGRAPH_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, config.StoreConfig{Backend: "memgraph", Memgraph: config.MemgraphConfig{
		URI:      uri,
		User:     os.Getenv("MEMGRAPH_USER"),
		Password: os.Getenv("MEMGRAPH_PASSWORD"),
	}}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close(ctx)

	d := store.(*MemgraphStore).driver
	_, err = d.ExecuteQuery(ctx, "MATCH (e:Event) DETACH DELETE e", nil)
	require.NoError(t, err)

	exerciseStore(t, store)
}
