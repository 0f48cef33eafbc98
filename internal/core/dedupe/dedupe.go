// Package dedupe decides whether a candidate poster is already in the catalog.
package dedupe

import (
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

// Tier is one signal in the match cascade.
type Tier interface {
	Name() string
	Match(c model.Candidate, records []model.CatalogRecord) (model.MatchOutcome, bool)
}

// Resolver runs tiers in order and stops at the first match. Each tier is a
// linear scan of the snapshot, which is fine for catalogs of a few thousand
// records; beyond that the fingerprint tier wants a BK-tree or a
// multi-index hash.
type Resolver struct {
	tiers  []Tier
	logger zerolog.Logger
}

func NewResolver(tiers []Tier, logger zerolog.Logger) *Resolver {
	return &Resolver{
		tiers:  tiers,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// DefaultTiers builds the fingerprint, title and date cascade.
func DefaultTiers(match config.MatchConfig, placeholder string) []Tier {
	return []Tier{
		FingerprintTier{MaxDistance: match.FingerprintMaxDistance},
		TitleTier{MinScore: match.TitleMinScore, Placeholder: placeholder},
		DateTier{},
	}
}

// Resolve matches c against records, which must be a consistent snapshot of
// the catalog. It never writes.
func (r *Resolver) Resolve(c model.Candidate, records []model.CatalogRecord) model.MatchOutcome {
	for _, tier := range r.tiers {
		outcome, ok := tier.Match(c, records)
		if !ok {
			r.logger.Debug().Str("tier", tier.Name()).Msg("no match")
			continue
		}
		outcome.Matched = true
		outcome.Tier = tier.Name()
		r.logger.Debug().
			Str("tier", outcome.Tier).
			Str("record_id", outcome.Record.ID).
			Int("score", outcome.Score).
			Msg("matched existing record")
		return outcome
	}
	return model.Unmatched
}

// FingerprintTier matches the record with the smallest Hamming distance, if
// it is within MaxDistance. Ties keep the earliest record.
type FingerprintTier struct {
	MaxDistance int
}

func (FingerprintTier) Name() string { return model.TierFingerprint }

func (t FingerprintTier) Match(c model.Candidate, records []model.CatalogRecord) (model.MatchOutcome, bool) {
	best, bestDist := -1, model.FingerprintBits+1
	for i, rec := range records {
		if !rec.HasFingerprint() {
			continue
		}
		if d := c.Fingerprint.Distance(*rec.Fingerprint); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > t.MaxDistance {
		return model.Unmatched, false
	}
	return model.MatchOutcome{Record: records[best], Score: bestDist}, true
}

// TitleTier matches the record whose title is most similar to the
// candidate's, if the similarity reaches MinScore. Placeholder titles carry
// no signal and are never compared.
type TitleTier struct {
	MinScore    int
	Placeholder string
}

func (TitleTier) Name() string { return model.TierTitle }

func (t TitleTier) Match(c model.Candidate, records []model.CatalogRecord) (model.MatchOutcome, bool) {
	if c.Title == "" || c.Title == t.Placeholder {
		return model.Unmatched, false
	}
	best, bestScore := -1, -1.0
	for i, rec := range records {
		if s := TokenSetRatio(c.Title, rec.Title); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < float64(t.MinScore) {
		return model.Unmatched, false
	}
	return model.MatchOutcome{Record: records[best], Score: int(bestScore)}, true
}

// DateTier matches the first record scheduled on the same UTC calendar day.
type DateTier struct{}

func (DateTier) Name() string { return model.TierDate }

func (DateTier) Match(c model.Candidate, records []model.CatalogRecord) (model.MatchOutcome, bool) {
	if c.Date == nil {
		return model.Unmatched, false
	}
	y, m, d := c.Date.UTC().Date()
	for _, rec := range records {
		if rec.Date == nil {
			continue
		}
		ry, rm, rd := rec.Date.UTC().Date()
		if ry == y && rm == m && rd == d {
			return model.MatchOutcome{Record: rec}, true
		}
	}
	return model.Unmatched, false
}
