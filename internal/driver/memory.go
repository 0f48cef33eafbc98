package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/agenthands/posterlens/internal/core/model"
)

// MemoryStore keeps records in process memory. Used by tests and the CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.CatalogRecord
}

func NewMemoryStore(seed ...model.CatalogRecord) *MemoryStore {
	s := &MemoryStore{}
	for _, rec := range seed {
		s.records = append(s.records, prepareInsert(rec))
	}
	return s
}

func (s *MemoryStore) ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readFailed("list fingerprinted events", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CatalogRecord
	for _, rec := range s.records {
		if rec.HasFingerprint() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readFailed("list events", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CatalogRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.CatalogRecord{}, writeFailed("insert event", err)
	}
	rec = prepareInsert(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.ID == rec.ID {
			return model.CatalogRecord{}, writeFailed("insert event", fmt.Errorf("duplicate id %q", rec.ID))
		}
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) BuildIndices(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
