package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core/model"
)

type SiteOptions struct {
	UserAgent string
	Timeout   time.Duration
	Limiter   *rate.Limiter
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// SiteSource scrapes a site that has a search page listing event links and
// detail pages describing one event. Selectors come from configuration.
type SiteSource struct {
	cfg  config.SourceConfig
	opts SiteOptions
}

func NewSiteSource(cfg config.SourceConfig, opts SiteOptions) *SiteSource {
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0)
	}
	return &SiteSource{cfg: cfg, opts: opts}
}

func (s *SiteSource) Name() string {
	return s.cfg.Name
}

func (s *SiteSource) Search(ctx context.Context, query string) (*model.ExternalResult, error) {
	searchURL, err := s.searchURL(query)
	if err != nil {
		return nil, err
	}

	link, err := s.firstResultLink(ctx, searchURL)
	if err != nil || link == "" {
		return nil, err
	}

	page, err := s.scrapeDetail(ctx, link)
	if err != nil {
		return nil, err
	}
	return &model.ExternalResult{
		Source:      s.cfg.Name,
		Title:       page.title,
		Description: page.description,
		DateText:    page.date,
		URL:         link,
	}, nil
}

func (s *SiteSource) searchURL(query string) (string, error) {
	u, err := url.Parse(s.cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("%s: invalid search url: %w", s.cfg.Name, err)
	}
	q := u.Query()
	q.Set(s.cfg.QueryParam, query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *SiteSource) collector() *colly.Collector {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if s.opts.UserAgent != "" {
		c.UserAgent = s.opts.UserAgent
	}
	if s.opts.Timeout > 0 {
		c.SetRequestTimeout(s.opts.Timeout)
	}
	if s.opts.Transport != nil {
		c.WithTransport(s.opts.Transport)
	}
	return c
}

// visit waits for the shared limiter and fetches one page.
func (s *SiteSource) visit(ctx context.Context, c *colly.Collector, target string) error {
	if err := s.opts.Limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.Visit(target); err != nil {
		return fmt.Errorf("%s: fetch %s: %w", s.cfg.Name, target, err)
	}
	return nil
}

func (s *SiteSource) firstResultLink(ctx context.Context, searchURL string) (string, error) {
	c := s.collector()
	var link string
	c.OnHTML(s.cfg.ResultSelector, func(e *colly.HTMLElement) {
		if link != "" {
			return
		}
		if href := strings.TrimSpace(e.Attr("href")); href != "" {
			link = e.Request.AbsoluteURL(href)
		}
	})
	if err := s.visit(ctx, c, searchURL); err != nil {
		return "", err
	}
	return link, nil
}

type detailPage struct {
	title       string
	description string
	date        string
}

func (s *SiteSource) scrapeDetail(ctx context.Context, link string) (detailPage, error) {
	c := s.collector()
	var page detailPage
	c.OnHTML("html", func(e *colly.HTMLElement) {
		ld := readJSONLD(e)
		page.title = firstNonEmpty(
			selectText(e, s.cfg.TitleSelector),
			ld.Name,
			e.ChildAttr(`meta[property="og:title"]`, "content"),
		)
		page.description = firstNonEmpty(
			selectText(e, s.cfg.DescriptionSelector),
			ld.Description,
			e.ChildAttr(`meta[property="og:description"]`, "content"),
		)
		page.date = firstNonEmpty(
			selectText(e, s.cfg.DateSelector),
			ld.StartDate,
		)
	})
	if err := s.visit(ctx, c, link); err != nil {
		return detailPage{}, err
	}
	return page, nil
}

// selectText returns the whitespace-collapsed text of the first element
// matching selector.
func selectText(e *colly.HTMLElement, selector string) string {
	if selector == "" {
		return ""
	}
	return collapse(e.DOM.Find(selector).First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
