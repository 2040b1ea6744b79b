package extraction

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	text := "  Jane Doe\nSKILLS\nGo, Rust  "
	prompt := BuildPrompt(text)

	for _, want := range []string{
		"Jane Doe\nSKILLS\nGo, Rust",
		`"professionalExperiences"`,
		`"technicalSkills"`,
		"Not specified",
		"Return ONLY the JSON object",
		`"required"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q", want)
		}
	}

	if strings.Contains(prompt, "{{") {
		t.Fatal("prompt has unresolved placeholders")
	}
	if !strings.HasSuffix(strings.TrimSpace(prompt), "JSON Response:") {
		t.Fatal("prompt should end with the response cue")
	}
	if BuildPrompt(text) != prompt {
		t.Fatal("prompt is not deterministic")
	}
}

func TestBuildPromptKeepsPlaceholdersInText(t *testing.T) {
	prompt := BuildPrompt("literal {{RESPONSE_SCHEMA}} in a CV")
	if !strings.Contains(prompt, "literal {{RESPONSE_SCHEMA}} in a CV") {
		t.Fatal("document text must be embedded verbatim")
	}
}
