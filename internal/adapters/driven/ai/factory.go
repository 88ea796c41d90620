// Package ai builds the configured embedder.
package ai

import (
	"fmt"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/embedding/histogram"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/embedding/limited"
	openaiembed "github.com/custodia-labs/onboard-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// CreateEmbedder creates the embedder selected by settings, wrapped with the
// configured timeout and rate limit.
func CreateEmbedder(settings domain.EmbeddingSettings) (driven.Embedder, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider %s requires an API key (set embedding.api_key or OPENAI_API_KEY)",
			settings.Provider)
	}

	var base driven.Embedder
	switch settings.Provider {
	case domain.EmbeddingProviderHistogram:
		base = histogram.New(settings.Dimensions)
	case domain.EmbeddingProviderOpenAI:
		svc, err := openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
			Timeout:    settings.Timeout,
			MaxRetries: -1,
		})
		if err != nil {
			return nil, err
		}
		base = svc
	}

	return limited.New(base,
		limited.WithTimeout(settings.Timeout),
		limited.WithRequestsPerSecond(settings.RequestsPerSecond),
	), nil
}
