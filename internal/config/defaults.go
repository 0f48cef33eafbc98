package config

const (
	defaultPort                   = "8080"
	defaultMaxUploadMB            = 10
	defaultRequestTimeoutSeconds  = 60
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
	defaultStoreBackend           = "sqlite"
	defaultSQLitePath             = "data/posters.db"
	defaultMemgraphURI            = "bolt://localhost:7687"
	defaultMaxPixels              = 50_000_000
	defaultMinDimension           = 1200
	defaultContrastCutoff         = 5
	defaultSharpen                = 1.0
	defaultContrastBoost          = 50
	defaultBrightness             = 10
	defaultTesseractPath          = "tesseract"
	defaultOCRLanguages           = "rus+eng"
	defaultOCRMinLength           = 10
	defaultPlaceholder            = "Событие без названия"
	defaultFingerprintMaxDistance = 8
	defaultTitleMinScore          = 78
	defaultSimilarMaxDistance     = 14
	defaultSimilarLimit           = 10
	defaultExternalIntervalMillis = 300
	defaultExternalTimeoutSeconds = 8
	defaultUserAgent              = "PosterLensBot/1.0 (+https://github.com/agenthands/posterlens)"
	defaultLLMPrompt              = "Transcribe all text printed on this event poster exactly as written, line by line. Output only the text."
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:                  defaultPort,
			MaxUploadMB:           defaultMaxUploadMB,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Store: StoreConfig{
			Backend:    defaultStoreBackend,
			SQLitePath: defaultSQLitePath,
			Memgraph:   MemgraphConfig{URI: defaultMemgraphURI},
		},
		Fingerprint: FingerprintConfig{
			MaxPixels:      defaultMaxPixels,
			MinDimension:   defaultMinDimension,
			ContrastCutoff: defaultContrastCutoff,
			Sharpen:        defaultSharpen,
			ContrastBoost:  defaultContrastBoost,
			Brightness:     defaultBrightness,
		},
		OCR: OCRConfig{
			Engines:       []string{"tesseract"},
			TesseractPath: defaultTesseractPath,
			Languages:     defaultOCRLanguages,
			PSMModes:      []int{6, 11, 3, 4},
			MinLength:     defaultOCRMinLength,
		},
		LLM: LLMConfig{
			Prompt: defaultLLMPrompt,
		},
		Normalize: NormalizeConfig{
			MixedWords:    DefaultMixedWords(),
			Letters:       DefaultLetters(),
			CyrillicWords: DefaultCyrillicWords(),
		},
		Parser: ParserConfig{
			Placeholder: defaultPlaceholder,
			StopWords:   DefaultStopWords(),
		},
		Match: MatchConfig{
			FingerprintMaxDistance: defaultFingerprintMaxDistance,
			TitleMinScore:          defaultTitleMinScore,
		},
		Similar: SimilarConfig{
			MaxDistance: defaultSimilarMaxDistance,
			Limit:       defaultSimilarLimit,
		},
		External: ExternalConfig{
			Enabled:        true,
			IntervalMillis: defaultExternalIntervalMillis,
			TimeoutSeconds: defaultExternalTimeoutSeconds,
			UserAgent:      defaultUserAgent,
			Sources:        DefaultSources(),
		},
	}
}

// DefaultMixedWords lists recurring misreads that contain Latin look-alikes.
// They run before letter substitution.
func DefaultMixedWords() []Replacement {
	return []Replacement{
		{Old: "КОНЦЕ PT", New: "КОНЦЕРТ"},
		{Old: "ГPУППЫ", New: "ГРУППЫ"},
		{Old: "ЗBEЗДАМ", New: "ЗВЁЗДАМ"},
		{Old: "ФЕHИC", New: "ФЕНИС"},
		{Old: "ФЕHИС", New: "ФЕНИС"},
		{Old: "ФEНИC", New: "ФЕНИС"},
	}
}

// DefaultLetters maps Latin letters to the Cyrillic glyphs they are confused with.
func DefaultLetters() []Replacement {
	pairs := []string{
		"A", "А", "B", "В", "C", "С", "E", "Е", "H", "Н", "K", "К",
		"M", "М", "O", "О", "P", "Р", "T", "Т", "X", "Х", "Y", "У",
		"a", "а", "c", "с", "e", "е", "o", "о", "p", "р", "x", "х", "y", "у",
	}
	out := make([]Replacement, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Replacement{Old: pairs[i], New: pairs[i+1]})
	}
	return out
}

// DefaultCyrillicWords lists recurring whole-word misreads in Cyrillic text.
func DefaultCyrillicWords() []Replacement {
	return []Replacement{
		{Old: "КОНЦЕ РТ", New: "КОНЦЕРТ"},
		{Old: "ГРУГПЫ", New: "ГРУППЫ"},
		{Old: "ЗВЕТДАМ", New: "ЗВЁЗДАМ"},
		{Old: "БУДУБЕУО", New: "БУДУЩЕГО"},
		{Old: "БУДУБЕГО", New: "БУДУЩЕГО"},
		{Old: "АЛ БОМ", New: "АЛЬБОМ"},
		{Old: "албом", New: "альбом"},
		{Old: "ОБНИМС", New: "ФЕНИС"},
	}
}

// DefaultStopWords are words that never make a line a title on their own.
func DefaultStopWords() []string {
	return []string{"концерт", "конерт", "группы", "группа", "новый", "альбом", "цена", "руб", "клуб"}
}

// DefaultSources are the external event sites, in priority order.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:                "kudago",
			SearchURL:           "https://kudago.com/events/",
			QueryParam:          "q",
			ResultSelector:      ".post .title a, .card__title a",
			TitleSelector:       "h1",
			DescriptionSelector: ".description",
			DateSelector:        ".date",
		},
		{
			Name:                "afisha.ru",
			SearchURL:           "https://www.afisha.ru/search/",
			QueryParam:          "q",
			ResultSelector:      ".o-teaser a",
			TitleSelector:       "h1",
			DescriptionSelector: ".b-event__description",
		},
		{
			Name:                "yandex.afisha",
			SearchURL:           "https://afisha.yandex.ru/search",
			QueryParam:          "what",
			ResultSelector:      ".search-snippet__title a, .event-card a",
			TitleSelector:       "h1",
			DescriptionSelector: ".event-description",
		},
	}
}
