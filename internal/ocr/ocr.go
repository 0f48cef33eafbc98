// Package ocr reads printed text from normalized poster images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/agenthands/posterlens/internal/config"
	"github.com/agenthands/posterlens/internal/llm"
)

// Recognizer extracts text from an image. An empty string with a nil error
// means the engine ran and found nothing.
type Recognizer interface {
	ExtractText(ctx context.Context, img image.Image) (string, error)
}

// named is implemented by recognizers that can describe themselves in logs.
type named interface {
	Name() string
}

// Longest runs every engine and keeps the longest text that is longer than
// MinLength runes. If none is, it returns the last successful result. It
// fails only when every engine failed.
type Longest struct {
	engines   []Recognizer
	minLength int
	logger    zerolog.Logger
}

func NewLongest(engines []Recognizer, minLength int, logger zerolog.Logger) *Longest {
	return &Longest{
		engines:   engines,
		minLength: minLength,
		logger:    logger.With().Str("component", "ocr").Logger(),
	}
}

func (l *Longest) ExtractText(ctx context.Context, img image.Image) (string, error) {
	var (
		best, last string
		bestLen    int
		succeeded  bool
		errs       []error
	)
	for i, engine := range l.engines {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := engineName(engine, i)
		text, err := engine.ExtractText(ctx, img)
		if err != nil {
			l.logger.Debug().Err(err).Str("engine", name).Msg("ocr attempt failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		succeeded = true
		last = text
		n := utf8.RuneCountInString(text)
		l.logger.Debug().Str("engine", name).Int("length", n).Msg("ocr attempt finished")
		if n > l.minLength && n > bestLen {
			best, bestLen = text, n
		}
	}
	if !succeeded {
		return "", errors.Join(errs...)
	}
	if best == "" {
		return last, nil
	}
	return best, nil
}

func engineName(r Recognizer, i int) string {
	if n, ok := r.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("engine-%d", i)
}

// LLM transcribes text with a multimodal model.
type LLM struct {
	Client llm.VisionClient
	Prompt string
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) ExtractText(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	text, err := l.Client.Transcribe(ctx, l.Prompt, data, "image/png")
	if err != nil {
		return "", fmt.Errorf("vision model: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// New builds the configured engine chain. Tesseract contributes one engine per
// page segmentation mode. The vision client is only used when "llm" is
// listed and may be nil otherwise.
func New(cfg config.OCRConfig, prompt string, vision llm.VisionClient, logger zerolog.Logger) (*Longest, error) {
	var engines []Recognizer
	for _, name := range cfg.Engines {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tesseract":
			for _, psm := range cfg.PSMModes {
				engines = append(engines, &Tesseract{Path: cfg.TesseractPath, Languages: cfg.Languages, PSM: psm})
			}
		case "llm":
			if vision == nil {
				return nil, fmt.Errorf("ocr engine %q requires an llm provider", name)
			}
			engines = append(engines, &LLM{Client: vision, Prompt: prompt})
		default:
			return nil, fmt.Errorf("unknown ocr engine %q", name)
		}
	}
	if len(engines) == 0 {
		return nil, errors.New("no ocr engines configured")
	}
	return NewLongest(engines, cfg.MinLength, logger), nil
}
