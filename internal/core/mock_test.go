package core

import (
	"context"
	"image"

	"github.com/agenthands/posterlens/internal/core/model"
	"github.com/agenthands/posterlens/internal/driver"
)

type MockStore struct {
	*driver.MemoryStore
	ListErr   error
	InsertErr error
	Lists     int
	Inserts   int
}

func NewMockStore(seed ...model.CatalogRecord) *MockStore {
	return &MockStore{MemoryStore: driver.NewMemoryStore(seed...)}
}

func (m *MockStore) ListAllRecords(ctx context.Context) ([]model.CatalogRecord, error) {
	m.Lists++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.MemoryStore.ListAllRecords(ctx)
}

func (m *MockStore) ListRecordsWithFingerprint(ctx context.Context) ([]model.CatalogRecord, error) {
	m.Lists++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.MemoryStore.ListRecordsWithFingerprint(ctx)
}

func (m *MockStore) Insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	m.Inserts++
	if m.InsertErr != nil {
		return model.CatalogRecord{}, m.InsertErr
	}
	return m.MemoryStore.Insert(ctx, rec)
}

type MockOCR struct {
	Text  string
	Err   error
	Calls int
}

func (m *MockOCR) ExtractText(ctx context.Context, img image.Image) (string, error) {
	m.Calls++
	return m.Text, m.Err
}

type MockSearcher struct {
	Result  *model.ExternalResult
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) *model.ExternalResult {
	m.Queries = append(m.Queries, query)
	return m.Result
}

type panicParser struct {
	placeholder string
}

func (p panicParser) Parse(string) model.Fields { panic("rule table corrupted") }

func (p panicParser) Placeholder() string { return p.placeholder }
