package ocr

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries each extractor in order and returns the first result with at
// least minChars of text. When none qualifies it returns the longest result
// seen, or the last error if every step failed.
type Chain struct {
	steps    []Extractor
	minChars int
}

// NewChain creates a Chain over steps.
func NewChain(minChars int, steps ...Extractor) *Chain {
	return &Chain{steps: steps, minChars: minChars}
}

// ExtractText implements Extractor.
func (c *Chain) ExtractText(ctx context.Context, data []byte) (Text, error) {
	var best Text
	var lastErr error
	found := false

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		text, err := step.ExtractText(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return Text{}, ctx.Err()
			}
			zap.L().Debug("ocr: extractor step failed", zap.Error(err))
			lastErr = err
			continue
		}
		if text.Len() >= c.minChars {
			return text, nil
		}
		zap.L().Debug("ocr: extractor step returned too little text",
			zap.String("method", text.Method),
			zap.Int("chars", text.Len()),
			zap.Int("min_chars", c.minChars),
		)
		if !found || text.Len() > best.Len() {
			best = text
			found = true
		}
	}

	if found {
		return best, nil
	}
	if lastErr == nil {
		lastErr = eris.New("ocr: no extractors configured")
	}
	return Text{}, lastErr
}
