package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateExternal(); err != nil {
		return err
	}
	if err := c.validateNormalize(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Parser.Placeholder) == "" {
		return errors.New("parser.placeholder must not be empty")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch strings.ToLower(strings.TrimSpace(c.Store.Backend)) {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			return errors.New("store.postgres_dsn is required for the postgres backend (or set POSTGRES_DSN)")
		}
	case "memgraph":
		if strings.TrimSpace(c.Store.Memgraph.URI) == "" {
			return errors.New("store.memgraph.uri is required for the memgraph backend (or set MEMGRAPH_URI)")
		}
	default:
		return fmt.Errorf("store.backend: unsupported value %q", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateOCR() error {
	if len(c.OCR.Engines) == 0 {
		return errors.New("ocr.engines must list at least one engine")
	}
	for _, engine := range c.OCR.Engines {
		switch strings.ToLower(strings.TrimSpace(engine)) {
		case "tesseract":
			if len(c.OCR.PSMModes) == 0 {
				return errors.New("ocr.psm_modes must not be empty when tesseract is enabled")
			}
		case "llm":
			if strings.TrimSpace(c.LLM.Provider) == "" {
				return errors.New("llm.provider is required when the llm OCR engine is enabled")
			}
		default:
			return fmt.Errorf("ocr.engines: unsupported engine %q", engine)
		}
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if c.Match.FingerprintMaxDistance < 0 || c.Match.FingerprintMaxDistance > 64 {
		return errors.New("match.fingerprint_max_distance must be between 0 and 64")
	}
	if c.Match.TitleMinScore < 0 || c.Match.TitleMinScore > 100 {
		return errors.New("match.title_min_score must be between 0 and 100")
	}
	if c.Similar.MaxDistance < 0 || c.Similar.MaxDistance > 64 {
		return errors.New("similar.max_distance must be between 0 and 64")
	}
	if c.Fingerprint.MaxPixels <= 0 {
		return errors.New("fingerprint.max_pixels must be positive")
	}
	if c.Fingerprint.MinDimension < 0 {
		return errors.New("fingerprint.min_dimension must not be negative")
	}
	if c.Fingerprint.ContrastCutoff < 0 || c.Fingerprint.ContrastCutoff >= 50 {
		return errors.New("fingerprint.contrast_cutoff must be in [0, 50)")
	}
	return nil
}

func (c *Config) validateExternal() error {
	if !c.External.Enabled {
		return nil
	}
	if c.External.IntervalMillis < 0 {
		return errors.New("external.interval_ms must not be negative")
	}
	if c.External.TimeoutSeconds <= 0 {
		return errors.New("external.timeout_seconds must be positive")
	}
	for i, src := range c.External.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("external.sources[%d].name is required", i)
		}
		if strings.TrimSpace(src.SearchURL) == "" || strings.TrimSpace(src.ResultSelector) == "" {
			return fmt.Errorf("external source %q needs search_url and result_selector", src.Name)
		}
	}
	return nil
}

// validateNormalize rejects correction tables that feed themselves: a
// replacement whose output contains a word the tables rewrite again, or a
// letter mapped onto another mapped letter. Such tables never settle.
func (c *Config) validateNormalize() error {
	words := append(slices.Clone(c.Normalize.MixedWords), c.Normalize.CyrillicWords...)
	for _, r := range words {
		for _, other := range words {
			if other.Old != "" && strings.Contains(r.New, other.Old) {
				return fmt.Errorf("normalize: replacement %q -> %q produces %q, which is rewritten again", r.Old, r.New, other.Old)
			}
		}
	}
	letters := make(map[string]bool, len(c.Normalize.Letters))
	for _, r := range c.Normalize.Letters {
		letters[r.Old] = true
	}
	for _, r := range c.Normalize.Letters {
		if letters[r.New] {
			return fmt.Errorf("normalize.letters: %q -> %q maps onto another mapped letter", r.Old, r.New)
		}
	}
	return nil
}
