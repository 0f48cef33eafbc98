package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	logger zerolog.Logger
}

func NewMemgraphDriver(ctx context.Context, cfg config.MemgraphConfig, logger zerolog.Logger) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	logger.Info().Str("uri", cfg.URI).Msg("connected to memgraph")
	return &MemgraphDriver{Driver: driver, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	for _, q := range EventIndexQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Memgraph rejects CREATE INDEX for an existing index.
			d.logger.Warn().Err(err).Str("query", q).Msg("failed to create index")
		}
	}
	return nil
}

// MemgraphStore keeps catalog records as :Event nodes.
type MemgraphStore struct {
	driver GraphDriver
}

func NewMemgraphStore(driver GraphDriver) *MemgraphStore {
	return &MemgraphStore{driver: driver}
}

func (s *MemgraphStore) ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, ListFingerprintedEventsQuery)
}

func (s *MemgraphStore) ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, ListEventsQuery)
}

func (s *MemgraphStore) list(ctx context.Context, query string) ([]model.CatalogRecord, error) {
	res, err := s.driver.ExecuteQuery(ctx, query, nil)
	if err != nil {
		return nil, readFailed("list events", err)
	}
	records := make([]model.CatalogRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		r, err := eventFromRecord(rec)
		if err != nil {
			return nil, readFailed("decode event", err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *MemgraphStore) Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	rec = prepareInsert(rec)
	params := map[string]interface{}{
		"id":           rec.ID,
		"title":        rec.Title,
		"description":  rec.Description,
		"date":         nullableTime(rec.Date),
		"location":     rec.Location,
		"price":        rec.Price,
		"image_hash":   nullableHash(rec.Fingerprint),
		"raw_text":     rec.RawText,
		"source_url":   rec.SourceURL,
		"parsed_by_ai": rec.ParsedByAI,
		"created_at":   formatTime(rec.CreatedAt),
	}
	if _, err := s.driver.ExecuteQuery(ctx, CreateEventQuery, params); err != nil {
		return model.CatalogRecord{}, writeFailed("insert event", err)
	}
	return rec, nil
}

func (s *MemgraphStore) BuildIndices(ctx context.Context) error {
	return s.driver.BuildIndices(ctx)
}

func (s *MemgraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func eventFromRecord(rec *neo4j.Record) (model.CatalogRecord, error) {
	props := make(map[string]any, len(rec.Keys))
	for i, k := range rec.Keys {
		if i < len(rec.Values) {
			props[k] = rec.Values[i]
		}
	}

	str := func(key string) string {
		s, _ := props[key].(string)
		return s
	}
	optional := func(key string) *string {
		s, ok := props[key].(string)
		if !ok {
			return nil
		}
		return &s
	}

	out := model.CatalogRecord{
		ID:          str("id"),
		Title:       str("title"),
		Description: str("description"),
		Location:    str("location"),
		Price:       str("price"),
		RawText:     str("raw_text"),
		SourceURL:   str("source_url"),
	}
	out.ParsedByAI, _ = props["parsed_by_ai"].(bool)

	var err error
	if out.Date, err = parseNullableTime(optional("date")); err != nil {
		return out, err
	}
	if out.Fingerprint, err = parseNullableHash(optional("image_hash")); err != nil {
		return out, err
	}
	if out.CreatedAt, err = parseTime(str("created_at")); err != nil {
		return out, err
	}
	return out, nil
}
