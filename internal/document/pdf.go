package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the text layer page by page. The pdf package panics on some
// malformed inputs, so panics are reported as extraction failures.
func extractPDF(ctx context.Context, data []byte) (text Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = Text{}
			err = fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Text{}, fmt.Errorf("%w: open pdf: %v", ErrExtraction, err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return Text{}, fmt.Errorf("%w: pdf has no pages", ErrExtraction)
	}

	var builder strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return Text{}, fmt.Errorf("%w: read page %d: %v", ErrExtraction, i, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(content)
	}

	return Text{Content: builder.String(), Format: FormatPDF, Pages: pages}, nil
}
