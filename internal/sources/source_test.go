package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

const detailHTML = `<html><head>
<meta property="og:title" content="OG title">
<meta property="og:description" content="OG description">
<script type="application/ld+json">
[{"@context": "https://schema.org", "@type": "Event", "name": "LD name",
  "startDate": "2025-06-25T20:00:00+03:00"}]
</script>
</head><body><h1>  Фенис
  live </h1></body></html>`

func newSiteServer(t *testing.T, searchBody string) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, searchBody)
	})
	mux.HandleFunc("/event/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, detailHTML)
	})
	mux.HandleFunc("/broken/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &queries
}

func siteConfig(srv *httptest.Server, path string) config.SourceConfig {
	return config.SourceConfig{
		Name:                "test",
		SearchURL:           srv.URL + path,
		QueryParam:          "q",
		ResultSelector:      ".post .title a, .card__title a",
		TitleSelector:       "h1",
		DescriptionSelector: ".description",
		DateSelector:        ".date",
	}
}

func TestSiteSourceFollowsFirstResult(t *testing.T) {
	srv, queries := newSiteServer(t, `<html><body>
<div class="post"><div class="title"><a href="/event/1">first</a></div></div>
<div class="post"><div class="title"><a href="/event/2">second</a></div></div>
</body></html>`)

	src := NewSiteSource(siteConfig(srv, "/search"), SiteOptions{Timeout: time.Second})
	res, err := src.Search(context.Background(), "Фенис концерт")

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"Фенис концерт"}, *queries)
	assert.Equal(t, srv.URL+"/event/1", res.URL)
	assert.Equal(t, "Фенис live", res.Title)
	assert.Equal(t, "OG description", res.Description)
	assert.Equal(t, "2025-06-25T20:00:00+03:00", res.DateText)
	assert.Equal(t, "test", res.Source)
}

func TestSiteSourceNoResults(t *testing.T) {
	srv, _ := newSiteServer(t, `<html><body><p>Ничего не найдено</p></body></html>`)

	res, err := NewSiteSource(siteConfig(srv, "/search"), SiteOptions{}).Search(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestSiteSourceHTTPError(t *testing.T) {
	srv, _ := newSiteServer(t, "")

	res, err := NewSiteSource(siteConfig(srv, "/broken/search"), SiteOptions{}).Search(context.Background(), "x")
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestSiteSourceRespectsLimiter(t *testing.T) {
	srv, _ := newSiteServer(t, `<div class="card__title"><a href="/event/1">x</a></div>`)
	opts := SiteOptions{Limiter: rate.NewLimiter(rate.Every(40*time.Millisecond), 1)}

	start := time.Now()
	res, err := NewSiteSource(siteConfig(srv, "/search"), opts).Search(context.Background(), "x")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSiteSourceCancelledContext(t *testing.T) {
	srv, queries := newSiteServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSiteSource(siteConfig(srv, "/search"), SiteOptions{
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 0),
	}).Search(ctx, "x")
	assert.Error(t, err)
	assert.Empty(t, *queries)
}

type fakeSource struct {
	name   string
	result *model.ExternalResult
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, _ string) (*model.ExternalResult, error) {
	f.calls++
	return f.result, f.err
}

func TestSearcherOrderAndFaultTolerance(t *testing.T) {
	failing := &fakeSource{name: "failing", err: errors.New("timeout")}
	empty := &fakeSource{name: "empty", result: &model.ExternalResult{URL: "https://x", Title: ""}}
	hit := &fakeSource{name: "hit", result: &model.ExternalResult{URL: "https://hit/1", Title: "Фенис"}}
	later := &fakeSource{name: "later", result: &model.ExternalResult{URL: "https://later/1", Title: "Другое"}}

	s := NewSearcher([]Source{failing, empty, hit, later}, zerolog.Nop())
	res := s.Search(context.Background(), "Фенис")

	require.NotNil(t, res)
	assert.Equal(t, "https://hit/1", res.URL)
	assert.Equal(t, "hit", res.Source)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 0, later.calls)
}

func TestSearcherExhausted(t *testing.T) {
	s := NewSearcher([]Source{
		&fakeSource{name: "a"},
		&fakeSource{name: "b", err: errors.New("down")},
	}, zerolog.Nop())

	assert.Nil(t, s.Search(context.Background(), "q"))
}

func TestSearcherStopsOnCancel(t *testing.T) {
	src := &fakeSource{name: "a", result: &model.ExternalResult{URL: "u", Title: "t"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, NewSearcher([]Source{src}, zerolog.Nop()).Search(ctx, "q"))
	assert.Equal(t, 0, src.calls)
}

func TestNewBuildsConfiguredSources(t *testing.T) {
	s := New(config.Default().External, zerolog.Nop())
	require.Len(t, s.sources, 3)
	assert.Equal(t, "kudago", s.sources[0].Name())
	assert.Equal(t, "afisha.ru", s.sources[1].Name())
	assert.Equal(t, "yandex.afisha", s.sources[2].Name())
}
