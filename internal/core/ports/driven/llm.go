package driven

import "context"

// LLMService is the narrow capability the search core needs from a language
// model: turn a prompt into a JSON document. This is an optional service -
// when nil, parsing degrades gracefully to the rule-based pass only.
//
// Implementations may include:
//   - OpenAI-compatible chat completion APIs
//   - Ollama (local models)
type LLMService interface {
	// GenerateJSON produces a JSON completion for the prompt. The returned
	// string should be a bare JSON object; callers tolerate fenced output.
	GenerateJSON(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
