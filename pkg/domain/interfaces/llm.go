package interfaces

import "context"

// LLMClient is the language-model capability boundary. The concrete
// provider (Gemini, OpenAI) is swappable behind this interface; the
// orchestrator never talks to a provider SDK directly.
type LLMClient interface {
	// Generate performs one structured-output generation turn. The
	// returned text is expected to parse as the agent output schema.
	Generate(ctx context.Context, instructions, payload string) (string, error)

	// Embed converts texts into fixed-dimension embedding vectors.
	// Vectors are not normalized; callers normalize before similarity use.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns a human-readable label of the underlying model,
	// recorded in the audit trail
	Model() string
}
