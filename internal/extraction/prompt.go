package extraction

import (
	_ "embed"
	"strings"

	"github.com/spigell/cv-extractor/internal/cv"
)

//go:embed prompt.md
var promptTemplate string

// BuildPrompt renders the extraction instructions around the document text.
// The output depends only on text.
func BuildPrompt(text string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{RESPONSE_SCHEMA}}", strings.TrimSpace(cv.ResponseShape()))
	return strings.ReplaceAll(prompt, "{{CV_TEXT}}", strings.TrimSpace(text))
}
