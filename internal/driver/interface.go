package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/posterlens/internal/core/model"
)

// GraphDriver runs Cypher against a Bolt-compatible graph database.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

// CatalogStore persists catalog records. Read errors wrap
// model.ErrCatalogUnavailable and write errors wrap model.ErrPersistenceFailed.
// Listings return records in insertion order.
type CatalogStore interface {
	ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error)
	ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error)
	// Insert stores rec with a single atomic write and returns it as stored.
	// An empty ID or zero CreatedAt is filled in.
	Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
