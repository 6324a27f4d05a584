// Package ocr turns PDF bytes into sectioned text blocks.
package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/resilience"
)

// Extraction method names.
const (
	MethodNative    = "native"
	MethodPdfToText = "pdftotext"
	MethodMistral   = "mistral"
)

// Text is the raw per-page text of one PDF.
type Text struct {
	Pages  []string
	Method string
}

// Len counts the non-space characters across all pages.
func (t Text) Len() int {
	n := 0
	for _, p := range t.Pages {
		n += len(strings.Join(strings.Fields(p), ""))
	}
	return n
}

// Extractor extracts text content from PDF bytes.
type Extractor interface {
	ExtractText(ctx context.Context, pdf []byte) (Text, error)
}

// NewExtractor creates an Extractor based on config. The auto provider tries
// the native parser, then pdftotext, then Mistral when a key is set.
func NewExtractor(cfg config.OCRConfig, breakers *resilience.ServiceBreakers) (Extractor, error) {
	switch cfg.Provider {
	case "native":
		return NewNative(), nil
	case "local":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_key")
		}
		return withBreaker(NewMistralOCR(cfg.MistralKey, cfg.MistralModel), breakers), nil
	case "auto", "":
		steps := []Extractor{NewNative(), NewPdfToText(cfg.PdfToTextPath)}
		if cfg.MistralKey != "" {
			steps = append(steps, withBreaker(NewMistralOCR(cfg.MistralKey, cfg.MistralModel), breakers))
		}
		return NewChain(cfg.MinTextChars, steps...), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

func withBreaker(m *MistralOCR, breakers *resilience.ServiceBreakers) Extractor {
	if breakers == nil {
		return m
	}
	return &guarded{next: m, cb: breakers.Get(MethodMistral)}
}

// guarded routes calls through a circuit breaker.
type guarded struct {
	next Extractor
	cb   *resilience.CircuitBreaker
}

func (g *guarded) ExtractText(ctx context.Context, pdf []byte) (Text, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (Text, error) {
		return g.next.ExtractText(ctx, pdf)
	})
}
