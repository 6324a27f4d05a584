package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText writes data to a temp file and runs pdftotext -layout on it.
// Pages are split on form feeds.
func (p *PdfToText) ExtractText(ctx context.Context, data []byte) (Text, error) {
	f, err := os.CreateTemp("", "finextract-*.pdf")
	if err != nil {
		return Text{}, eris.Wrap(err, "ocr: create temp file")
	}
	defer os.Remove(f.Name()) //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return Text{}, eris.Wrap(err, "ocr: write temp file")
	}
	if err := f.Close(); err != nil {
		return Text{}, eris.Wrap(err, "ocr: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", f.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Text{}, ctx.Err()
		}
		return Text{}, eris.Wrapf(err, "ocr: pdftotext failed: %s", strings.TrimSpace(stderr.String()))
	}

	return Text{Pages: splitPages(stdout.String()), Method: MethodPdfToText}, nil
}

func splitPages(out string) []string {
	pages := strings.Split(out, "\f")
	// pdftotext ends the last page with a form feed too.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
