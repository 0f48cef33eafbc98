package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/posterlens/internal/core/model"
)

var eventKeys = []string{"id", "title", "description", "date", "location", "price",
	"image_hash", "raw_text", "source_url", "parsed_by_ai", "created_at"}

func TestMemgraphStoreInsert(t *testing.T) {
	mock := &MockDriver{}
	store := NewMemgraphStore(mock)

	date := time.Date(2025, 6, 25, 20, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	rec, err := store.Insert(context.Background(), model.CatalogRecord{
		Title:       "Фенис",
		Date:        &date,
		Fingerprint: model.FingerprintPtr(0xabc),
		ParsedByAI:  true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, CreateEventQuery, mock.QueryExecuted)
	assert.Equal(t, rec.ID, mock.QueryParams["id"])
	assert.Equal(t, "2025-06-25T17:00:00.000000000Z", mock.QueryParams["date"])
	assert.Equal(t, "0000000000000abc", mock.QueryParams["image_hash"])
	assert.Equal(t, true, mock.QueryParams["parsed_by_ai"])
}

func TestMemgraphStoreInsertNullables(t *testing.T) {
	mock := &MockDriver{}
	_, err := NewMemgraphStore(mock).Insert(context.Background(), model.CatalogRecord{ID: "e1", Title: "x"})
	require.NoError(t, err)

	assert.Equal(t, "e1", mock.QueryParams["id"])
	assert.Nil(t, mock.QueryParams["date"])
	assert.Nil(t, mock.QueryParams["image_hash"])
}

func TestMemgraphStoreInsertFailure(t *testing.T) {
	mock := &MockDriver{Err: errors.New("connection reset")}
	_, err := NewMemgraphStore(mock).Insert(context.Background(), model.CatalogRecord{Title: "x"})
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
}

func TestMemgraphStoreList(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{
		Keys: eventKeys,
		Records: []*neo4j.Record{
			{Keys: eventKeys, Values: []any{"e1", "Фенис", "", "2025-06-25T17:00:00.000000000Z", "Клуб Мумий",
				"500", "0000000000000abc", "raw", "", true, "2025-06-01T10:00:00.000000000Z"}},
			{Keys: eventKeys, Values: []any{"e2", "Без даты", "desc", nil, "", "", nil, "", "https://kudago.com/e2",
				false, "2025-06-02T10:00:00.000000000Z"}},
		},
	}}
	store := NewMemgraphStore(mock)

	records, err := store.ListAllRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListEventsQuery, mock.QueryExecuted)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "e1", first.ID)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2025, 6, 25, 17, 0, 0, 0, time.UTC), *first.Date)
	require.NotNil(t, first.Fingerprint)
	assert.Equal(t, model.Fingerprint(0xabc), *first.Fingerprint)
	assert.True(t, first.ParsedByAI)

	second := records[1]
	assert.Nil(t, second.Date)
	assert.Nil(t, second.Fingerprint)
	assert.Equal(t, "https://kudago.com/e2", second.SourceURL)

	_, err = store.ListRecordsWithFingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListFingerprintedEventsQuery, mock.QueryExecuted)
}

func TestMemgraphStoreListFailures(t *testing.T) {
	_, err := NewMemgraphStore(&MockDriver{Err: errors.New("down")}).ListAllRecords(context.Background())
	assert.ErrorIs(t, err, model.ErrCatalogUnavailable)

	bad := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		{Keys: []string{"id", "image_hash", "created_at"}, Values: []any{"e1", "not-hex", "2025-06-01T10:00:00.000000000Z"}},
	}}}
	_, err = NewMemgraphStore(bad).ListRecordsWithFingerprint(context.Background())
	assert.ErrorIs(t, err, model.ErrCatalogUnavailable)
}

func TestMemgraphStoreClose(t *testing.T) {
	mock := &MockDriver{}
	require.NoError(t, NewMemgraphStore(mock).Close(context.Background()))
	assert.True(t, mock.Closed)
}
