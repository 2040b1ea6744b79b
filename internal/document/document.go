// Package document turns uploaded CV files into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrExtraction marks a document without a usable text layer. It is structural
// and retrying will not change the outcome.
var ErrExtraction = errors.New("text extraction failed")

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// MinQuality is the printable ratio below which an extracted text layer is
// treated as unreadable.
const MinQuality = 0.85

var (
	pdfMagic = []byte("%PDF-")
	utf8BOM  = []byte("\xEF\xBB\xBF")
)

// Text is the extracted text layer of one document.
type Text struct {
	Content string
	Format  Format
	Pages   int
}

// Extract detects the document format and returns its text layer.
func Extract(ctx context.Context, data []byte) (Text, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Text{}, fmt.Errorf("%w: document is empty", ErrExtraction)
	}

	var (
		text Text
		err  error
	)
	switch {
	case isPDF(data):
		text, err = extractPDF(ctx, data)
	case isText(data):
		text = Text{Content: string(data), Format: FormatText, Pages: 1}
	default:
		return Text{}, fmt.Errorf("%w: unsupported document format", ErrExtraction)
	}
	if err != nil {
		return Text{}, err
	}

	text.Content = normalizeText(text.Content)
	if text.Content == "" {
		return Text{}, fmt.Errorf("%w: no text could be extracted", ErrExtraction)
	}
	if q := Quality(text.Content); q < MinQuality {
		return Text{}, fmt.Errorf("%w: text layer is unreadable (printable ratio %.2f)", ErrExtraction, q)
	}

	return text, nil
}

// isPDF requires the magic at the start, after an optional BOM or whitespace.
func isPDF(data []byte) bool {
	head := bytes.TrimPrefix(data, utf8BOM)
	head = bytes.TrimLeft(head, " \t\r\n\f\x00")
	return bytes.HasPrefix(head, pdfMagic)
}

func isText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

func normalizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
