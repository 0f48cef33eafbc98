package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	result  *model.PipelineResult
	matches []model.SimilarMatch
	report  *model.DebugReport
	err     error

	raw      []byte
	limit    int
	topN     int
	deadline bool
}

func (m *mockService) Process(ctx context.Context, raw []byte) (*model.PipelineResult, error) {
	m.raw = raw
	_, m.deadline = ctx.Deadline()
	return m.result, m.err
}

func (m *mockService) Similar(ctx context.Context, raw []byte, limit int) ([]model.SimilarMatch, error) {
	m.raw, m.limit = raw, limit
	return m.matches, m.err
}

func (m *mockService) Debug(ctx context.Context, raw []byte, topN int) (*model.DebugReport, error) {
	m.raw, m.topN = raw, topN
	return m.report, m.err
}

func newTestRouter(svc PosterService) *gin.Engine {
	cfg := config.Default().Server
	cfg.MaxUploadMB = 1
	return NewServer(svc, cfg, zerolog.Nop()).SetupRouter()
}

func uploadRequest(t *testing.T, path, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="poster.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestLookup(t *testing.T) {
	date := time.Date(2025, 6, 25, 17, 0, 0, 0, time.UTC)
	svc := &mockService{result: &model.PipelineResult{
		Action: model.ActionFoundExternal,
		Record: model.CatalogRecord{
			ID:          "e1",
			Title:       "Фенис",
			Date:        &date,
			Fingerprint: model.FingerprintPtr(0xabc),
			SourceURL:   "https://kudago.com/e1",
		},
		SourceURL: "https://kudago.com/e1",
	}}

	w, body := serve(newTestRouter(svc), uploadRequest(t, "/api/v1/photo/lookup", "image/jpeg", []byte("jpeg bytes")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("jpeg bytes"), svc.raw)
	assert.True(t, svc.deadline)
	assert.Equal(t, "found_external", body["action"])
	assert.Equal(t, "e1", body["event_id"])

	event := body["event"].(map[string]any)
	assert.Equal(t, "2025-06-25T17:00:00Z", event["date"])
	assert.Nil(t, event["price"])
	assert.Equal(t, "0000000000000abc", event["image_hash"])
	assert.Equal(t, "https://kudago.com/e1", event["source_url"])
	assert.NotContains(t, event, "raw_text")
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("decode: %w", model.ErrInvalidImage), http.StatusBadRequest},
		{fmt.Errorf("%w: ocr", model.ErrProcessingFailed), http.StatusInternalServerError},
		{fmt.Errorf("%w: list", model.ErrCatalogUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: insert", model.ErrPersistenceFailed), http.StatusInternalServerError},
		{fmt.Errorf("scrape: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newTestRouter(&mockService{err: tt.err})
			w, body := serve(r, uploadRequest(t, "/api/v1/photo/lookup", "image/png", []byte("x")))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestLookupRequiresFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/photo/lookup", nil)
	w, body := serve(newTestRouter(&mockService{}), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "file")
}

func TestLookupRejectsEmptyAndOversized(t *testing.T) {
	r := newTestRouter(&mockService{})

	w, _ := serve(r, uploadRequest(t, "/api/v1/photo/lookup", "image/png", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(r, uploadRequest(t, "/api/v1/photo/lookup", "image/png", bytes.Repeat([]byte{1}, 1<<20+1)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLookupStopsReadingOversizedBody(t *testing.T) {
	svc := &mockService{}
	r := newTestRouter(svc)

	w, body := serve(r, uploadRequest(t, "/api/v1/photo/lookup", "image/png", bytes.Repeat([]byte{1}, 3<<20)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, body["error"], "1 MB")
	assert.Nil(t, svc.raw)
}

func TestSimilar(t *testing.T) {
	svc := &mockService{matches: []model.SimilarMatch{
		{Record: model.CatalogRecord{ID: "a", Title: "Фенис"}, Distance: 0},
		{Record: model.CatalogRecord{ID: "b", Title: "Кино"}, Distance: 9},
	}}
	r := newTestRouter(svc)

	w, body := serve(r, uploadRequest(t, "/api/v1/photo/similar?limit=5", "image/webp", []byte("x")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.limit)
	matches := body["query_matches"].([]any)
	require.Len(t, matches, 2)
	assert.Equal(t, map[string]any{"id": "b", "title": "Кино", "distance": float64(9)}, matches[1])

	w, body = serve(r, uploadRequest(t, "/api/v1/photo/similar", "text/plain", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file must be an image", body["error"])
}

func TestSimilarEmptyListIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&mockService{}).ServeHTTP(w, uploadRequest(t, "/api/v1/photo/similar", "image/png", []byte("x")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query_matches":[]}`, w.Body.String())
}

func TestDebug(t *testing.T) {
	svc := &mockService{report: &model.DebugReport{
		QueryHash: 0xff,
		Matches: []model.SimilarMatch{
			{Record: model.CatalogRecord{ID: "a", Title: "Фенис", Fingerprint: model.FingerprintPtr(0xfe)}, Distance: 1},
		},
		TotalChecked: 3,
	}}
	r := newTestRouter(svc)

	w, body := serve(r, uploadRequest(t, "/api/v1/photo/debug", "image/png", []byte("x")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, svc.topN)
	assert.Equal(t, "00000000000000ff", body["query_hash"])
	assert.Equal(t, float64(3), body["total_checked"])
	match := body["matches"].([]any)[0].(map[string]any)
	assert.Equal(t, "00000000000000fe", match["stored_hash"])

	serve(r, uploadRequest(t, "/api/v1/photo/debug?top_n=3", "image/png", []byte("x")))
	assert.Equal(t, 3, svc.topN)

	w, _ = serve(r, uploadRequest(t, "/api/v1/photo/debug?top_n=zero", "image/png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	w, body := serve(newTestRouter(&mockService{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
