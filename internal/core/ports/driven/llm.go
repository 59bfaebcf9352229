package driven

import "context"

// LLMService is the downstream language model that consumes augmented
// prompts. It is an optional external capability behind a deliberately
// narrow interface; inference itself is out of scope for the engine.
type LLMService interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
