package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agenthands/posterlens/internal/core/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    date TEXT,
    location TEXT NOT NULL DEFAULT '',
    price TEXT NOT NULL DEFAULT '',
    image_hash TEXT,
    raw_text TEXT NOT NULL DEFAULT '',
    source_url TEXT NOT NULL DEFAULT '',
    parsed_by_ai INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_image_hash ON events(image_hash);
`

const eventColumns = `id, title, description, date, location, price, image_hash, raw_text, source_url, parsed_by_ai, created_at`

// SQLiteStore keeps the catalog in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.BuildIndices(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) BuildIndices(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE image_hash IS NOT NULL ORDER BY rowid`)
}

func (s *SQLiteStore) ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY rowid`)
}

func (s *SQLiteStore) list(ctx context.Context, query string) ([]model.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, readFailed("list events", err)
	}
	defer rows.Close()

	var records []model.CatalogRecord
	for rows.Next() {
		var (
			rec        model.CatalogRecord
			date, hash sql.NullString
			parsedByAI int
			createdAt  string
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &date, &rec.Location, &rec.Price,
			&hash, &rec.RawText, &rec.SourceURL, &parsedByAI, &createdAt); err != nil {
			return nil, readFailed("scan event", err)
		}
		rec.ParsedByAI = parsedByAI != 0
		if rec.Date, err = parseNullableTime(nullString(date)); err != nil {
			return nil, readFailed("decode event", err)
		}
		if rec.Fingerprint, err = parseNullableHash(nullString(hash)); err != nil {
			return nil, readFailed("decode event", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, readFailed("decode event", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, readFailed("list events", err)
	}
	return records, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	rec = prepareInsert(rec)
	parsedByAI := 0
	if rec.ParsedByAI {
		parsedByAI = 1
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Title, rec.Description, nullableTime(rec.Date), rec.Location, rec.Price,
			nullableHash(rec.Fingerprint), rec.RawText, rec.SourceURL, parsedByAI, formatTime(rec.CreatedAt))
		return err
	})
	if err != nil {
		return model.CatalogRecord{}, writeFailed("insert event", err)
	}
	return rec, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

const (
	busyRetryAttempts = 5
	busyRetryDelay    = 20 * time.Millisecond
)

// retryOnBusy retries fn while SQLite reports a locked database.
func retryOnBusy(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(busyRetryDelay * time.Duration(attempt+1)):
		}
	}
	return err
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
