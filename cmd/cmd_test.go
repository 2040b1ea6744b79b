package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-extractor/internal/cv"
	"github.com/spigell/cv-extractor/internal/extraction"
)

func TestDecodeConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}

	if config.Gemini.Backend != "gemini" || config.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected gemini defaults %+v", config.Gemini)
	}
	settings := config.Generation.settings()
	if settings.Temperature != 0.1 || settings.TopP != 0.8 || settings.TopK != 40 || settings.MaxOutputTokens != 2048 || !settings.JSONOutput {
		t.Fatalf("unexpected generation defaults %+v", settings)
	}
	if config.Retry.MaxAttempts != 3 || config.Retry.BaseDelay != time.Second || config.Retry.AttemptTimeout != time.Minute {
		t.Fatalf("unexpected retry defaults %+v", config.Retry)
	}
	if config.Log.MaxLength != 200 {
		t.Fatalf("unexpected log defaults %+v", config.Log)
	}
}

func TestDecodeConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv-extractor.yaml")
	content := `
gemini:
  backend: vertex
  project: my-project
  model: gemini-2.5-pro
generation:
  temperature: 0.3
  stop-sequences: ["END"]
retry:
  max-attempts: 5
  base-delay: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}

	if config.Gemini.Backend != "vertex" || config.Gemini.Project != "my-project" || config.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected gemini config %+v", config.Gemini)
	}
	settings := config.Generation.settings()
	if settings.Temperature != 0.3 || settings.TopK != 40 {
		t.Fatalf("unexpected generation config %+v", settings)
	}
	if len(settings.StopSequences) != 1 || settings.StopSequences[0] != "END" {
		t.Fatalf("unexpected stop sequences %v", settings.StopSequences)
	}
	if config.Retry.MaxAttempts != 5 || config.Retry.BaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry config %+v", config.Retry)
	}
}

func TestDecodeConfigEmpty(t *testing.T) {
	config, err := decodeConfig(viper.New())
	if err != nil {
		t.Fatalf("decodeConfig returned error: %v", err)
	}
	if config.Gemini == nil || config.Generation == nil || config.Retry == nil || config.Log == nil {
		t.Fatalf("expected all sections to be populated, got %+v", config)
	}
	if config.Generation.MaxOutputTokens != 2048 {
		t.Fatalf("expected default generation settings, got %+v", config.Generation)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")

	_, err := newGenerator(context.Background(), &GeminiConfig{Backend: "gemini"})
	if err == nil || !strings.Contains(err.Error(), "gemini api key is not configured") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	tests := []struct {
		name string
		env  string
		cfg  GeminiConfig
		want string
	}{
		{name: "file wins", env: "from-env", cfg: GeminiConfig{APIKeyFile: keyFile, APIKey: "inline"}, want: "from-file"},
		{name: "env before inline", env: "from-env", cfg: GeminiConfig{APIKey: "inline"}, want: "from-env"},
		{name: "inline last", cfg: GeminiConfig{APIKey: "inline"}, want: "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(apiKeyEnv, tt.env)
			got, err := resolveAPIKey(&tt.cfg)
			if err != nil {
				t.Fatalf("resolveAPIKey returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.TXT", "notes.md", "photo.png", "archive.zip"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := listDocuments(dir)
	if err != nil {
		t.Fatalf("listDocuments returned error: %v", err)
	}

	want := []string{"a.TXT", "b.pdf", "notes.md"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i, name := range want {
		if filepath.Base(files[i]) != name {
			t.Fatalf("expected %s at %d, got %s", name, i, files[i])
		}
	}

	if _, err := listDocuments(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	docs := map[string]string{
		"jane.txt":  "Jane Doe\n\nSKILLS\nPython, SQL",
		"empty.txt": "   ",
		"anon.txt":  "no name in this document",
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := listDocuments(dir)
	if err != nil {
		t.Fatalf("listDocuments returned error: %v", err)
	}

	pipeline := extraction.New(extraction.Options{Logger: zap.NewNop()})
	results, skipped := runBatch(context.Background(), pipeline, files, extraction.Request{AppliedJob: "Analyst", RequesterID: 3}, zap.NewNop())

	if skipped != 1 {
		t.Fatalf("expected one skipped document, got %d", skipped)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Files are processed in name order: anon.txt, then jane.txt.
	if results[0].Source != "anon.txt" || !results[0].Record.NeedsReview() {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].Source != "jane.txt" || results[1].Record.Name != "Jane Doe" || results[1].AppliedJob != "Analyst" {
		t.Fatalf("unexpected second result %+v", results[1])
	}
	if countNeedsReview(results) != 1 {
		t.Fatalf("expected one record to need review")
	}
}

func TestRunBatchStopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane.txt")
	if err := os.WriteFile(path, []byte("Jane Doe"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := extraction.New(extraction.Options{Logger: zap.NewNop()})
	results, skipped := runBatch(ctx, pipeline, []string{path}, extraction.Request{}, zap.NewNop())
	if len(results) != 0 || skipped != 0 {
		t.Fatalf("expected nothing processed, got %d results and %d skipped", len(results), skipped)
	}
}

func TestRenamed(t *testing.T) {
	original := &extraction.Result{
		ID:       "req-1",
		Warnings: []string{"first"},
		Record:   cv.ErrorRecord("text", "failed"),
	}

	next := renamed(original, "  Jane Doe ")

	if next.Record.Name != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", next.Record.Name)
	}
	if original.Record.Name != cv.ParseErrorName {
		t.Fatal("original result must not change")
	}
	if len(original.Warnings) != 1 || len(next.Warnings) != 2 {
		t.Fatalf("unexpected warnings %v / %v", original.Warnings, next.Warnings)
	}
}

func TestValidateName(t *testing.T) {
	for _, input := range []string{"", "   ", "null", "Undefined"} {
		if err := validateName(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
	if err := validateName("Jane Doe"); err != nil {
		t.Fatalf("expected valid name, got %v", err)
	}
}

func TestHandleReviewActionDone(t *testing.T) {
	_, err := handleReviewAction(PromptDone, &extraction.Result{}, "", zap.NewNop())
	if !errors.Is(err, errDone) {
		t.Fatalf("expected errDone, got %v", err)
	}

	_, err = handleReviewAction("unknown", &extraction.Result{}, "", zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}
