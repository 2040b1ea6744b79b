package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/cv-extractor/internal/ai"
)

const (
	defaultModel    = "gemini-2.0-flash"
	defaultLocation = "us-central1"

	BackendGemini = "gemini"
	BackendVertex = "vertex"

	jsonMIMEType = "application/json"
)

// Config selects the backend and model used by the Generator.
type Config struct {
	Backend  string
	APIKey   string
	Project  string
	Location string
	Model    string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models    contentGenerator
	modelName string
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a Generator for either the Gemini API or Vertex AI backend.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg.Model), nil
}

func newGenerator(models contentGenerator, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Generator{models: models, modelName: model}
}

func clientConfig(cfg Config) (*genai.ClientConfig, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendGemini:
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		return &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, nil
	case BackendVertex:
		project := strings.TrimSpace(cfg.Project)
		if project == "" {
			return nil, errors.New("vertex ai project is required")
		}
		location := strings.TrimSpace(cfg.Location)
		if location == "" {
			location = defaultLocation
		}
		return &genai.ClientConfig{Project: project, Location: location, Backend: genai.BackendVertexAI}, nil
	default:
		return nil, fmt.Errorf("unsupported gemini backend %q", cfg.Backend)
	}
}

// Generate sends the prompt to Gemini and returns the joined textual response.
func (g *Generator) Generate(ctx context.Context, prompt string, settings ai.Settings) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), generationConfig(settings))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	// Only the first candidate with text is used.
	var output string
	for _, candidate := range resp.Candidates {
		if output = candidateText(candidate); output != "" {
			break
		}
	}

	if output == "" {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini api blocked prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text := strings.TrimSpace(part.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	return strings.TrimSpace(builder.String())
}

func generationConfig(settings ai.Settings) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(settings.Temperature),
		TopP:            genai.Ptr(settings.TopP),
		MaxOutputTokens: settings.MaxOutputTokens,
	}
	if settings.TopK > 0 {
		cfg.TopK = genai.Ptr(settings.TopK)
	}
	if len(settings.StopSequences) > 0 {
		cfg.StopSequences = append([]string(nil), settings.StopSequences...)
	}
	if settings.JSONOutput {
		cfg.ResponseMIMEType = jsonMIMEType
	}
	return cfg
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
