// Package app wires configuration into a ready pipeline for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/core"
	"github.com/agenthands/posterlens/internal/driver"
	"github.com/agenthands/posterlens/internal/llm"
	"github.com/agenthands/posterlens/internal/ocr"
	"github.com/agenthands/posterlens/internal/sources"
)

const defaultConfigPath = "config/config.toml"

// LoadConfig reads path (or CONFIG_PATH, or the default location) when it
// exists, applies environment overrides and validates the result.
func LoadConfig(path string) (*config.Config, bool, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, found, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, false, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, found, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, found, nil
}

type App struct {
	Config   *config.Config
	Store    driver.CatalogStore
	Pipeline *core.Pipeline

	closers []func(context.Context) error
}

// New opens the catalog store and builds the pipeline.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg}

	vision, err := visionClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := vision.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	recognizer, err := ocr.New(cfg.OCR, cfg.LLM.Prompt, vision, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	store, err := driver.Open(ctx, cfg.Store, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	var searcher core.ExternalSearcher
	if cfg.External.Enabled {
		searcher = sources.New(cfg.External, logger)
	}

	a.Pipeline = core.NewPipeline(cfg, store, recognizer, searcher, logger)
	return a, nil
}

// visionClient builds the LLM client only when an OCR engine needs it.
func visionClient(ctx context.Context, cfg *config.Config) (llm.VisionClient, error) {
	for _, e := range cfg.OCR.Engines {
		if strings.EqualFold(strings.TrimSpace(e), "llm") {
			client, err := llm.NewClient(ctx, cfg.LLM)
			if err != nil {
				return nil, fmt.Errorf("init vision client: %w", err)
			}
			return client, nil
		}
	}
	return nil, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
