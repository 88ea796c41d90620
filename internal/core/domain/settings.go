package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the vectorizer used for chunks and queries.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHistogram is the built-in deterministic placeholder vectorizer.
	EmbeddingProviderHistogram EmbeddingProvider = "histogram"

	// EmbeddingProviderOpenAI is the OpenAI (or OpenAI-compatible) embeddings API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHistogram, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHistogram:
		return "Histogram (local, deterministic)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// Default setting values.
const (
	DefaultChunkSize        = 500
	DefaultChunkOverlap     = 50
	DefaultDimensions       = 128
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultEmbeddingTimeout = 30 * time.Second
	DefaultStoreTimeout     = 10 * time.Second
	DefaultEmbedConcurrency = 4
	DefaultStorageDSN       = "corpus.db"
)

// StorageSettings holds corpus store configuration.
type StorageSettings struct {
	// DSN selects the backend: a file path for sqlite, postgres:// for Postgres,
	// or memory:// for an ephemeral store.
	DSN string

	// Timeout bounds each store call.
	Timeout time.Duration
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Dimensions is the vector size D. Fixed for the life of a corpus.
	Dimensions int

	// Model is the embedding model name (for OpenAI).
	Model string

	// BaseURL is an optional API endpoint for OpenAI-compatible servers.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds each embedding call.
	Timeout time.Duration

	// RequestsPerSecond limits calls to the provider. Zero means unlimited.
	RequestsPerSecond float64

	// Concurrency is the number of chunks embedded in parallel during ingestion.
	Concurrency int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// QuerySettings holds query defaults.
type QuerySettings struct {
	// DefaultTopK is used when a query does not specify a result count.
	DefaultTopK int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	Query     QuerySettings

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultAppSettings returns settings with sensible defaults.
// The histogram embedder needs no credentials, so a fresh install works offline.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			DSN:     DefaultStorageDSN,
			Timeout: DefaultStoreTimeout,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider:    EmbeddingProviderHistogram,
			Dimensions:  DefaultDimensions,
			Model:       DefaultEmbeddingModel,
			Timeout:     DefaultEmbeddingTimeout,
			Concurrency: DefaultEmbedConcurrency,
		},
		Query: QuerySettings{
			DefaultTopK: DefaultTopK,
		},
	}
}

// Validate reports every setting that cannot be used.
func (s AppSettings) Validate() error {
	verr := &ValidationError{}
	if s.Storage.DSN == "" {
		verr.Add("storage.dsn", "must not be empty")
	}
	if s.Storage.Timeout < 0 {
		verr.Add("storage.timeout", "must not be negative")
	}
	if s.Chunking.Size < 0 {
		verr.Add("chunking.size", "must not be negative")
	}
	if s.Chunking.Overlap < 0 {
		verr.Add("chunking.overlap", "must not be negative")
	}
	if !s.Embedding.Provider.IsValid() {
		verr.Add("embedding.provider", fmt.Sprintf("unknown provider %q", s.Embedding.Provider))
	}
	if s.Embedding.Dimensions <= 0 {
		verr.Add("embedding.dimensions", "must be positive")
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		verr.Add("embedding.api_key", "required for provider "+s.Embedding.Provider.String())
	}
	if s.Embedding.Timeout < 0 {
		verr.Add("embedding.timeout", "must not be negative")
	}
	if s.Embedding.RequestsPerSecond < 0 {
		verr.Add("embedding.requests_per_second", "must not be negative")
	}
	if s.Embedding.Concurrency < 1 {
		verr.Add("embedding.concurrency", "must be at least 1")
	}
	if s.Query.DefaultTopK < 1 || s.Query.DefaultTopK > MaxTopK {
		verr.Add("query.default_top_k", fmt.Sprintf("must be between 1 and %d", MaxTopK))
	}
	return verr.ErrOrNil()
}

// AllEmbeddingProviders returns every supported embedding provider.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderHistogram,
		EmbeddingProviderOpenAI,
	}
}
