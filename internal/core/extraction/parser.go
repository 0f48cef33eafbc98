// Package extraction turns normalized poster text into structured fields.
//
// Every field is parsed by its own ordered list of rules; the first rule that
// succeeds wins. Fields are independent: a failure in one never affects the
// others.
package extraction

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

type Parser struct {
	placeholder string

	titleRules    []titleRule
	dateRules     []dateRule
	priceRules    []priceRule
	locationRules []locationRule

	// Now supplies the current time for year inference. Defaults to time.Now.
	Now func() time.Time

	logger zerolog.Logger
}

func NewParser(cfg config.ParserConfig, logger zerolog.Logger) *Parser {
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Parser{
		placeholder:   cfg.Placeholder,
		titleRules:    defaultTitleRules(stop),
		dateRules:     defaultDateRules,
		priceRules:    defaultPriceRules,
		locationRules: defaultLocationRules,
		Now:           time.Now,
		logger:        logger.With().Str("component", "parser").Logger(),
	}
}

// Placeholder is the title used when no title rule matches.
func (p *Parser) Placeholder() string {
	return p.placeholder
}

// Parse extracts title, date, price and location from text. The returned
// title is never empty.
func (p *Parser) Parse(text string) model.Fields {
	fields := model.Fields{RawText: text}

	fields.Title = guard(p, "title", func() string { return p.parseTitle(text) })
	if fields.Title == "" {
		fields.Title = p.placeholder
	}
	fields.Date = guard(p, "date", func() *time.Time { return p.parseDate(text) })
	fields.Price = guard(p, "price", func() string { return p.parsePrice(text) })
	fields.Location = guard(p, "location", func() string { return p.parseLocation(text) })

	return fields
}

// guard runs one field parser and turns a panic into an absent field.
func guard[T any](p *Parser, field string, fn func() T) (v T) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn().Str("field", field).Interface("panic", r).Msg("field rule panicked, field left empty")
			var zero T
			v = zero
		}
	}()
	return fn()
}

func (p *Parser) parseTitle(text string) string {
	lines := splitLines(text)
	for _, rule := range p.titleRules {
		if title, ok := rule.match(text, lines); ok {
			p.logger.Debug().Str("rule", rule.name).Str("title", title).Msg("title found")
			return title
		}
	}
	p.logger.Debug().Msg("no title found, using placeholder")
	return p.placeholder
}

func (p *Parser) parseDate(text string) *time.Time {
	t, rule, ok := matchDate(p.dateRules, text, p.Now())
	if !ok {
		p.logger.Debug().Msg("no date found")
		return nil
	}
	p.logger.Debug().Str("rule", rule).Time("date", t).Msg("date found")
	return &t
}

func (p *Parser) parsePrice(text string) string {
	for _, rule := range p.priceRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			p.logger.Debug().Str("rule", rule.name).Str("price", m[1]).Msg("price found")
			return m[1]
		}
	}
	return ""
}

func (p *Parser) parseLocation(text string) string {
	for _, rule := range p.locationRules {
		if loc, ok := rule.match(text); ok {
			p.logger.Debug().Str("rule", rule.name).Str("location", loc).Msg("location found")
			return loc
		}
	}
	return ""
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
