// Package sources looks a poster up on third-party event sites when the
// catalog has no match.
package sources

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

// Source is one external event site.
type Source interface {
	Name() string
	// Search returns the best event for query, or nil when the site has none.
	Search(ctx context.Context, query string) (*model.ExternalResult, error)
}

// Searcher queries sources one at a time, in priority order, and returns the
// first usable result. Source failures are logged and skipped.
type Searcher struct {
	sources []Source
	logger  zerolog.Logger
}

func NewSearcher(sources []Source, logger zerolog.Logger) *Searcher {
	return &Searcher{
		sources: sources,
		logger:  logger.With().Str("component", "external_search").Logger(),
	}
}

// New builds a Searcher over the configured sites. All sites share one rate
// limiter so the pause between outbound fetches holds across requests.
func New(cfg config.ExternalConfig, logger zerolog.Logger) *Searcher {
	limiter := NewLimiter(cfg.Interval())
	opts := SiteOptions{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout(),
		Limiter:   limiter,
	}
	srcs := make([]Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		srcs = append(srcs, NewSiteSource(sc, opts))
	}
	return NewSearcher(srcs, logger)
}

// NewLimiter allows one fetch per interval. A non-positive interval disables
// limiting.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Search returns the first non-empty result, or nil when every source came up
// empty or failed.
func (s *Searcher) Search(ctx context.Context, query string) *model.ExternalResult {
	for _, src := range s.sources {
		if ctx.Err() != nil {
			s.logger.Warn().Err(ctx.Err()).Msg("external search interrupted")
			return nil
		}
		res, err := src.Search(ctx, query)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name()).Msg("external source unavailable")
			continue
		}
		if res.Empty() {
			s.logger.Debug().Str("source", src.Name()).Msg("no result")
			continue
		}
		if res.Source == "" {
			res.Source = src.Name()
		}
		s.logger.Info().Str("source", src.Name()).Str("url", res.URL).Str("title", res.Title).Msg("found external event")
		return res
	}
	s.logger.Info().Str("query", query).Msg("no results from external sites")
	return nil
}
