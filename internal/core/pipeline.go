// Package core sequences fingerprinting, text recognition, parsing, catalog
// matching, external lookup and persistence for one poster photo.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/cluster"
	"github.com/agenthands/posterlens/internal/core/dedupe"
	"github.com/agenthands/posterlens/internal/core/extraction"
	"github.com/agenthands/posterlens/internal/core/fingerprint"
	"github.com/agenthands/posterlens/internal/core/model"
	"github.com/agenthands/posterlens/internal/core/normalize"
	"github.com/agenthands/posterlens/internal/driver"
	"github.com/agenthands/posterlens/internal/ocr"
)

// Pipeline states, as logged.
const (
	StateReceived            = "received"
	StateFingerprinted       = "fingerprinted"
	StateTextExtracted       = "text_extracted"
	StateFieldsParsed        = "fields_parsed"
	StateResolved            = "resolved"
	StateReused              = "reused"
	StateExternalSearch      = "external_search"
	StateCreatedFromExternal = "created_from_external"
	StateCreated             = "created"
)

const (
	maxQueryRunes    = 100
	defaultEventHour = 20
)

// FieldParser turns normalized text into fields.
type FieldParser interface {
	Parse(text string) model.Fields
	Placeholder() string
}

// ExternalSearcher finds an event on third-party sites. Nil means nothing
// was found.
type ExternalSearcher interface {
	Search(ctx context.Context, query string) *model.ExternalResult
}

type Pipeline struct {
	Store      driver.CatalogStore
	OCR        ocr.Recognizer
	Searcher   ExternalSearcher
	Extractor  *fingerprint.Extractor
	Normalizer *normalize.Normalizer
	Parser     FieldParser
	Resolver   *dedupe.Resolver
	Clusters   cluster.Detector

	// NewID and Now are replaced in tests.
	NewID func() string
	Now   func() time.Time

	similar config.SimilarConfig
	logger  zerolog.Logger
}

// NewPipeline wires the pipeline stages from cfg. searcher may be nil to
// disable external lookup.
func NewPipeline(cfg *config.Config, store driver.CatalogStore, recognizer ocr.Recognizer, searcher ExternalSearcher, logger zerolog.Logger) *Pipeline {
	parser := extraction.NewParser(cfg.Parser, logger)
	return &Pipeline{
		Store:      store,
		OCR:        recognizer,
		Searcher:   searcher,
		Extractor:  fingerprint.NewExtractor(cfg.Fingerprint),
		Normalizer: normalize.New(cfg.Normalize),
		Parser:     parser,
		Resolver:   dedupe.NewResolver(dedupe.DefaultTiers(cfg.Match, parser.Placeholder()), logger),
		Clusters:   cluster.Components{MaxDistance: cfg.Match.FingerprintMaxDistance},
		NewID:      func() string { return uuid.New().String() },
		Now:        time.Now,
		similar:    cfg.Similar,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process recognizes one poster photo and either reuses a catalog record,
// creates one from an external listing, or creates one from the photo.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (*model.PipelineResult, error) {
	log := p.logger.With().Str("submission", p.NewID()).Logger()
	log.Info().Str("state", StateReceived).Int("bytes", len(raw)).Msg("pipeline state")

	img, fp, err := p.Extractor.Extract(raw)
	if err != nil {
		log.Warn().Err(err).Msg("fingerprint failed")
		return nil, err
	}
	log.Info().Str("state", StateFingerprinted).Stringer("image_hash", fp).Msg("pipeline state")

	text, err := p.OCR.ExtractText(ctx, img)
	if err != nil {
		log.Error().Err(err).Msg("text recognition failed")
		return nil, fmt.Errorf("%w: text recognition: %w", model.ErrProcessingFailed, err)
	}
	text = p.Normalizer.Normalize(text)
	log.Info().Str("state", StateTextExtracted).Int("length", utf8.RuneCountInString(text)).Msg("pipeline state")

	candidate := p.candidate(log, text, fp)
	log.Info().
		Str("state", StateFieldsParsed).
		Str("title", candidate.Title).
		Bool("has_date", candidate.Date != nil).
		Msg("pipeline state")

	records, err := p.Store.ListAllRecords(ctx)
	if err != nil {
		log.Error().Err(err).Msg("catalog read failed")
		return nil, wrapSentinel(model.ErrCatalogUnavailable, "read catalog", err)
	}

	outcome := p.Resolver.Resolve(candidate, records)
	log.Info().Str("state", StateResolved).Bool("matched", outcome.Matched).Int("checked", len(records)).Msg("pipeline state")
	if outcome.Matched {
		log.Info().
			Str("state", StateReused).
			Str("tier", outcome.Tier).
			Int("score", outcome.Score).
			Str("event_id", outcome.Record.ID).
			Msg("pipeline state")
		return &model.PipelineResult{
			Action:    model.ActionMatched,
			Record:    outcome.Record,
			SourceURL: outcome.Record.SourceURL,
			Tier:      outcome.Tier,
		}, nil
	}

	if ext := p.searchExternal(ctx, log, candidate); ext != nil {
		rec, err := p.insert(ctx, p.recordFromExternal(candidate, ext))
		if err != nil {
			log.Error().Err(err).Msg("failed to store event")
			return nil, err
		}
		log.Info().Str("state", StateCreatedFromExternal).Str("event_id", rec.ID).Str("source", ext.Source).Msg("pipeline state")
		return &model.PipelineResult{Action: model.ActionFoundExternal, Record: rec, SourceURL: ext.URL}, nil
	}

	rec, err := p.insert(ctx, p.recordFromCandidate(candidate))
	if err != nil {
		log.Error().Err(err).Msg("failed to store event")
		return nil, err
	}
	log.Info().Str("state", StateCreated).Str("event_id", rec.ID).Msg("pipeline state")
	return &model.PipelineResult{Action: model.ActionCreated, Record: rec}, nil
}

// candidate parses text into a Candidate. A parser panic degrades to a
// candidate carrying only the placeholder title and the raw text.
func (p *Pipeline) candidate(log zerolog.Logger, text string, fp model.Fingerprint) (c model.Candidate) {
	placeholder := p.Parser.Placeholder()
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("parse degraded, using minimal candidate")
			c = model.NewCandidate(model.Fields{RawText: text}, fp, placeholder)
		}
	}()
	return model.NewCandidate(p.Parser.Parse(text), fp, placeholder)
}

func (p *Pipeline) searchExternal(ctx context.Context, log zerolog.Logger, c model.Candidate) *model.ExternalResult {
	if p.Searcher == nil {
		return nil
	}
	query := searchQuery(c, p.Parser.Placeholder())
	if query == "" {
		log.Debug().Msg("nothing to search for")
		return nil
	}
	log.Info().Str("state", StateExternalSearch).Str("query", query).Msg("pipeline state")
	return p.Searcher.Search(ctx, query)
}

// searchQuery prefers a real title and falls back to the start of the raw
// text.
func searchQuery(c model.Candidate, placeholder string) string {
	if c.Title != "" && c.Title != placeholder {
		return c.Title
	}
	raw := strings.TrimSpace(c.RawText)
	if raw == "" {
		return ""
	}
	if utf8.RuneCountInString(raw) > maxQueryRunes {
		raw = string([]rune(raw)[:maxQueryRunes])
	}
	return strings.TrimSpace(raw)
}

func (p *Pipeline) recordFromExternal(c model.Candidate, ext *model.ExternalResult) model.CatalogRecord {
	now := p.Now().UTC()
	date := extraction.ParseDateText(ext.DateText, now)
	if date == nil {
		date = c.Date
	}
	if date == nil {
		date = &now
	}
	return model.CatalogRecord{
		ID:          p.NewID(),
		Title:       firstNonEmpty(ext.Title, c.Title),
		Description: firstNonEmpty(ext.Description, c.RawText),
		Date:        date,
		Location:    c.Location,
		Price:       c.Price,
		Fingerprint: model.FingerprintPtr(c.Fingerprint),
		RawText:     c.RawText,
		SourceURL:   ext.URL,
		CreatedAt:   now,
	}
}

func (p *Pipeline) recordFromCandidate(c model.Candidate) model.CatalogRecord {
	now := p.Now().UTC()
	date := c.Date
	if date == nil {
		d := time.Date(now.Year(), now.Month(), now.Day(), defaultEventHour, 0, 0, 0, time.UTC)
		date = &d
	}
	return model.CatalogRecord{
		ID:          p.NewID(),
		Title:       c.Title,
		Description: c.RawText,
		Date:        date,
		Location:    c.Location,
		Price:       c.Price,
		Fingerprint: model.FingerprintPtr(c.Fingerprint),
		RawText:     c.RawText,
		ParsedByAI:  true,
		CreatedAt:   now,
	}
}

func (p *Pipeline) insert(ctx context.Context, rec model.CatalogRecord) (model.CatalogRecord, error) {
	stored, err := p.Store.Insert(ctx, rec)
	if err != nil {
		return model.CatalogRecord{}, wrapSentinel(model.ErrPersistenceFailed, "insert event", err)
	}
	return stored, nil
}

// Similar ranks fingerprinted records by distance to the photo. limit <= 0
// uses the configured limit.
func (p *Pipeline) Similar(ctx context.Context, raw []byte, limit int) ([]model.SimilarMatch, error) {
	fp, records, err := p.fingerprintAndSnapshot(ctx, raw)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = p.similar.Limit
	}
	matches := dedupe.RankByDistance(fp, records, p.similar.MaxDistance, limit)
	p.logger.Debug().Stringer("image_hash", fp).Int("matches", len(matches)).Msg("similar lookup")
	return matches, nil
}

// Debug reports the topN nearest fingerprints regardless of distance.
func (p *Pipeline) Debug(ctx context.Context, raw []byte, topN int) (*model.DebugReport, error) {
	fp, records, err := p.fingerprintAndSnapshot(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &model.DebugReport{
		QueryHash:    fp,
		Matches:      dedupe.RankByDistance(fp, records, -1, topN),
		TotalChecked: len(records),
	}, nil
}

// Duplicates groups catalog records whose fingerprints would have matched
// each other.
func (p *Pipeline) Duplicates(ctx context.Context) ([][]model.CatalogRecord, error) {
	records, err := p.Store.ListRecordsWithFingerprint(ctx)
	if err != nil {
		return nil, wrapSentinel(model.ErrCatalogUnavailable, "read catalog", err)
	}
	groups := p.Clusters.Detect(records)
	p.logger.Info().Int("records", len(records)).Int("groups", len(groups)).Msg("duplicate audit")
	return groups, nil
}

func (p *Pipeline) fingerprintAndSnapshot(ctx context.Context, raw []byte) (model.Fingerprint, []model.CatalogRecord, error) {
	_, fp, err := p.Extractor.Extract(raw)
	if err != nil {
		return 0, nil, err
	}
	records, err := p.Store.ListRecordsWithFingerprint(ctx)
	if err != nil {
		return 0, nil, wrapSentinel(model.ErrCatalogUnavailable, "read catalog", err)
	}
	return fp, records, nil
}

// wrapSentinel makes sure err matches sentinel without wrapping it twice.
func wrapSentinel(sentinel error, op string, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
