package ocr

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Native reads the PDF text layer in-process.
type Native struct{}

// NewNative creates a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// ExtractText reads the text layer row by row. Scanned pages come back empty.
func (n *Native) ExtractText(ctx context.Context, data []byte) (text Text, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("ocr: native parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Text{}, eris.Wrap(err, "ocr: open pdf")
	}

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return Text{}, eris.Wrapf(err, "ocr: read page %d", i)
		}
		var sb strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			sb.WriteString(strings.Join(words, " "))
			sb.WriteByte('\n')
		}
		pages = append(pages, sb.String())
	}
	return Text{Pages: pages, Method: MethodNative}, nil
}
