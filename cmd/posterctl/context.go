package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/app"
	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/logging"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	logger     zerolog.Logger
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		logger:     zerolog.Nop(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := app.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.NewWithWriter(cfg.Log, os.Stderr)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withApp opens the catalog and pipeline for the duration of fn.
func (c *commandContext) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(a)
}
