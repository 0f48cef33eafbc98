package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/driver"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\nbackend = \"memory\"\n"), 0o644))

	cfg, found, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, found, err := LoadConfig("")
	assert.False(t, found)
	assert.Error(t, err)
}

func TestNewWiresMemoryPipeline(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.External.Enabled = false

	a, err := New(context.Background(), &cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.IsType(t, &driver.MemoryStore{}, a.Store)
	require.NotNil(t, a.Pipeline)
	assert.Nil(t, a.Pipeline.Searcher)
}

func TestNewRejectsLLMEngineWithoutProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.OCR.Engines = []string{"llm"}
	cfg.LLM.Provider = "nope"

	_, err := New(context.Background(), &cfg, zerolog.Nop())
	assert.Error(t, err)
}
