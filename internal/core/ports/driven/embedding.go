package driven

import "context"

// Embedder maps text to a fixed-dimension vector.
//
// Implementations must be deterministic: the same text always yields the same
// vector, otherwise re-ingested documents would not match earlier queries.
//
// Implementations include:
//   - histogram: code point histogram, local and dependency free
//   - openai: text-embedding-3-* via the OpenAI API
//   - limited: rate limit and timeout decorator around another Embedder
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size D.
	// Every vector returned by Embed has exactly this length.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
