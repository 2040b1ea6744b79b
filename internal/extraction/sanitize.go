package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// Sanitize isolates the JSON object in a raw backend response. The span runs
// from the first '{' to the last '}', so trailing commentary after the object
// is dropped but a second object after the first one is kept in the span.
func Sanitize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: %d bytes without an object span", ErrSanitization, len(raw))
	}

	return text[start : end+1], nil
}
