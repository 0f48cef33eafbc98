package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port                  string `toml:"port"`
	MaxUploadMB           int    `toml:"max_upload_mb"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request deadline.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type StoreConfig struct {
	Backend     string         `toml:"backend"`
	SQLitePath  string         `toml:"sqlite_path"`
	PostgresDSN string         `toml:"postgres_dsn"`
	Memgraph    MemgraphConfig `toml:"memgraph"`
}

type FingerprintConfig struct {
	// MaxPixels bounds both the decoded image and the up-scaled one.
	MaxPixels      int64   `toml:"max_pixels"`
	MinDimension   int     `toml:"min_dimension"`
	ContrastCutoff float64 `toml:"contrast_cutoff"`
	Sharpen        float64 `toml:"sharpen"`
	ContrastBoost  float64 `toml:"contrast_boost"`
	Brightness     float64 `toml:"brightness"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Prompt   string `toml:"prompt"`
}

type OCRConfig struct {
	// Engines are tried in order; "tesseract" or "llm".
	Engines       []string `toml:"engines"`
	TesseractPath string   `toml:"tesseract_path"`
	Languages     string   `toml:"languages"`
	PSMModes      []int    `toml:"psm_modes"`
	MinLength     int      `toml:"min_length"`
}

type Replacement struct {
	Old string `toml:"old"`
	New string `toml:"new"`
}

type NormalizeConfig struct {
	MixedWords    []Replacement `toml:"mixed_words"`
	Letters       []Replacement `toml:"letters"`
	CyrillicWords []Replacement `toml:"cyrillic_words"`
}

type ParserConfig struct {
	Placeholder string   `toml:"placeholder"`
	StopWords   []string `toml:"stop_words"`
}

type MatchConfig struct {
	FingerprintMaxDistance int `toml:"fingerprint_max_distance"`
	TitleMinScore          int `toml:"title_min_score"`
}

type SimilarConfig struct {
	MaxDistance int `toml:"max_distance"`
	Limit       int `toml:"limit"`
}

type SourceConfig struct {
	Name                string `toml:"name"`
	SearchURL           string `toml:"search_url"`
	QueryParam          string `toml:"query_param"`
	ResultSelector      string `toml:"result_selector"`
	TitleSelector       string `toml:"title_selector"`
	DescriptionSelector string `toml:"description_selector"`
	DateSelector        string `toml:"date_selector"`
}

type ExternalConfig struct {
	Enabled        bool           `toml:"enabled"`
	IntervalMillis int            `toml:"interval_ms"`
	TimeoutSeconds int            `toml:"timeout_seconds"`
	UserAgent      string         `toml:"user_agent"`
	Sources        []SourceConfig `toml:"sources"`
}

// Interval returns the minimum pause between outbound fetches.
func (e ExternalConfig) Interval() time.Duration {
	return time.Duration(e.IntervalMillis) * time.Millisecond
}

// Timeout returns the per-fetch network timeout.
func (e ExternalConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	Store       StoreConfig       `toml:"store"`
	Fingerprint FingerprintConfig `toml:"fingerprint"`
	OCR         OCRConfig         `toml:"ocr"`
	LLM         LLMConfig         `toml:"llm"`
	Normalize   NormalizeConfig   `toml:"normalize"`
	Parser      ParserConfig      `toml:"parser"`
	Match       MatchConfig       `toml:"match"`
	Similar     SimilarConfig     `toml:"similar"`
	External    ExternalConfig    `toml:"external"`
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values; arrays present in the file replace the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	cfg.clearLists()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.fillLists(Default())

	return &cfg, nil
}

// clearLists empties list-valued settings so array tables in the file do not
// append to the defaults.
func (c *Config) clearLists() {
	c.OCR.Engines = nil
	c.OCR.PSMModes = nil
	c.Normalize.MixedWords = nil
	c.Normalize.Letters = nil
	c.Normalize.CyrillicWords = nil
	c.Parser.StopWords = nil
	c.External.Sources = nil
}

func (c *Config) fillLists(d Config) {
	if c.OCR.Engines == nil {
		c.OCR.Engines = d.OCR.Engines
	}
	if c.OCR.PSMModes == nil {
		c.OCR.PSMModes = d.OCR.PSMModes
	}
	if c.Normalize.MixedWords == nil {
		c.Normalize.MixedWords = d.Normalize.MixedWords
	}
	if c.Normalize.Letters == nil {
		c.Normalize.Letters = d.Normalize.Letters
	}
	if c.Normalize.CyrillicWords == nil {
		c.Normalize.CyrillicWords = d.Normalize.CyrillicWords
	}
	if c.Parser.StopWords == nil {
		c.Parser.StopWords = d.Parser.StopWords
	}
	if c.External.Sources == nil {
		c.External.Sources = d.External.Sources
	}
}

// LoadOrDefault loads path when it exists and falls back to defaults otherwise.
// The returned bool reports whether the file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			return &cfg, false, nil
		}
		return nil, false, fmt.Errorf("stat config file '%s': %w", path, err)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// ApplyEnv overrides config values with environment variables when set.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("PORT", &c.Server.Port)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("STORE_BACKEND", &c.Store.Backend)
	setString("SQLITE_PATH", &c.Store.SQLitePath)
	setString("POSTGRES_DSN", &c.Store.PostgresDSN)
	setString("MEMGRAPH_URI", &c.Store.Memgraph.URI)
	setString("MEMGRAPH_USER", &c.Store.Memgraph.User)
	setString("MEMGRAPH_PASSWORD", &c.Store.Memgraph.Password)
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_API_KEY", &c.LLM.APIKey)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	setString("TESSERACT_PATH", &c.OCR.TesseractPath)

	if v := strings.TrimSpace(os.Getenv("OCR_ENGINES")); v != "" {
		var engines []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				engines = append(engines, e)
			}
		}
		c.OCR.Engines = engines
	}
	if v := strings.TrimSpace(os.Getenv("EXTERNAL_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.External.Enabled = b
		}
	}
}
