package ocr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/model"
)

const (
	// MinUsableChars is the least text worth sending to the extraction model.
	MinUsableChars = 50

	// DiagnosticInsufficientText marks a document whose text layer and OCR
	// both came back (nearly) empty.
	DiagnosticInsufficientText = "insufficient text extracted"

	pdfMagic     = "%PDF-"
	headerWindow = 1024
)

// Fetcher loads a document's bytes by ID.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// DocumentExtractor fetches a document, validates it and extracts sectioned
// text. Malformed documents produce an empty Extraction with a diagnostic
// rather than an error.
type DocumentExtractor struct {
	fetcher  Fetcher
	ext      Extractor
	maxBytes int64
}

// NewDocumentExtractor creates a DocumentExtractor. maxFileMB <= 0 disables
// the size check.
func NewDocumentExtractor(f Fetcher, ext Extractor, maxFileMB int) *DocumentExtractor {
	return &DocumentExtractor{
		fetcher:  f,
		ext:      ext,
		maxBytes: int64(maxFileMB) * 1024 * 1024,
	}
}

// Extract returns an error only when the document cannot be fetched or ctx
// ends. Every other problem is reported on the returned Extraction.
func (d *DocumentExtractor) Extract(ctx context.Context, ref model.DocumentRef) (model.Extraction, error) {
	log := zap.L().With(zap.String("document", ref.ID))

	if d.tooLarge(ref.Size) {
		return invalid(fmt.Sprintf("file is %d bytes, limit is %d", ref.Size, d.maxBytes)), nil
	}

	data, err := d.fetcher.Fetch(ctx, ref.ID)
	if err != nil {
		return model.Extraction{}, &model.ExtractionFailure{
			DocumentID: ref.ID,
			Reason:     model.ReasonExtractor,
			Err:        eris.Wrap(err, "ocr: fetch document"),
		}
	}

	switch {
	case len(data) == 0:
		return invalid("file is empty"), nil
	case d.tooLarge(int64(len(data))):
		return invalid(fmt.Sprintf("file is %d bytes, limit is %d", len(data), d.maxBytes)), nil
	case !hasPDFHeader(data):
		return invalid("not a PDF"), nil
	}

	text, err := d.ext.ExtractText(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return model.Extraction{}, ctx.Err()
		}
		log.Warn("ocr: text extraction failed", zap.Error(err))
		return model.Extraction{
			Diagnostic: "text extraction failed: " + err.Error(),
			Reason:     model.ReasonExtractor,
		}, nil
	}

	out := model.Extraction{Method: text.Method, PageCount: len(text.Pages)}
	if text.Len() < MinUsableChars {
		out.Diagnostic = DiagnosticInsufficientText
		out.Reason = model.ReasonExtractor
		return out, nil
	}

	out.Blocks = Sectionize(text.Pages)
	if out.Empty() {
		out.Diagnostic = DiagnosticInsufficientText
		out.Reason = model.ReasonExtractor
	}
	log.Debug("ocr: extracted text",
		zap.String("method", out.Method),
		zap.Int("pages", out.PageCount),
		zap.Int("blocks", len(out.Blocks)),
	)
	return out, nil
}

func (d *DocumentExtractor) tooLarge(n int64) bool {
	return d.maxBytes > 0 && n > d.maxBytes
}

func invalid(why string) model.Extraction {
	return model.Extraction{Diagnostic: "invalid document: " + why, Reason: model.ReasonInvalidDocument}
}

func hasPDFHeader(data []byte) bool {
	head := data
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	return bytes.Contains(head, []byte(pdfMagic))
}
