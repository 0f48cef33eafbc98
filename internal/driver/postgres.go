package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthands/posterlens/internal/core/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS events (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    date TIMESTAMPTZ,
    location TEXT NOT NULL DEFAULT '',
    price TEXT NOT NULL DEFAULT '',
    image_hash TEXT,
    raw_text TEXT NOT NULL DEFAULT '',
    source_url TEXT NOT NULL DEFAULT '',
    parsed_by_ai BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_image_hash ON events(image_hash);
`

const postgresMaxConns = 4

// PostgresStore keeps the catalog in a PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = postgresMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.BuildIndices(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) BuildIndices(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE image_hash IS NOT NULL ORDER BY seq`)
}

func (s *PostgresStore) ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY seq`)
}

func (s *PostgresStore) list(ctx context.Context, query string) ([]model.CatalogRecord, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, readFailed("list events", err)
	}
	defer rows.Close()

	var records []model.CatalogRecord
	for rows.Next() {
		var (
			rec  model.CatalogRecord
			date *time.Time
			hash *string
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &date, &rec.Location, &rec.Price,
			&hash, &rec.RawText, &rec.SourceURL, &rec.ParsedByAI, &rec.CreatedAt); err != nil {
			return nil, readFailed("scan event", err)
		}
		if date != nil {
			d := date.UTC()
			rec.Date = &d
		}
		if rec.Fingerprint, err = parseNullableHash(hash); err != nil {
			return nil, readFailed("decode event", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, readFailed("list events", err)
	}
	return records, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	rec = prepareInsert(rec)
	_, err := s.pool.Exec(ctx, `INSERT INTO events (`+eventColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.Title, rec.Description, rec.Date, rec.Location, rec.Price,
		nullableHash(rec.Fingerprint), rec.RawText, rec.SourceURL, rec.ParsedByAI, rec.CreatedAt)
	if err != nil {
		return model.CatalogRecord{}, writeFailed("insert event", err)
	}
	return rec, nil
}
