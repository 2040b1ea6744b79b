package ai

import "context"

// Settings controls a single generation request.
type Settings struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	StopSequences   []string
	// JSONOutput asks the backend to constrain its answer to a JSON document.
	JSONOutput bool
}

// DefaultSettings favours deterministic, bounded answers for structured extraction.
func DefaultSettings() Settings {
	return Settings{
		Temperature:     0.1,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 2048,
		JSONOutput:      true,
	}
}

// Generator turns a prompt into model text. Implementations report transport
// failures, backend errors and empty answers as errors.
type Generator interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
}
