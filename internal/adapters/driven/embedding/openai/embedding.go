// Package openai provides an embedding adapter for the OpenAI embeddings API
// and OpenAI-compatible servers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultModel   = domain.DefaultEmbeddingModel
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL for compatible servers.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions is requested from the API so vectors match the corpus size D.
	Dimensions int

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// MaxRetries overrides the client's retry count when non-negative.
	MaxRetries int
}

// Embedder generates embeddings using the OpenAI API.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int
}

// New creates a new OpenAI embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("openai: dimensions must be positive")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &Embedder{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
// Throttling, server errors and transport failures are reported as retryable
// *domain.IOError values.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Dimensions: openai.Int(int64(e.dimensions)),
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}

	data := resp.Data[0].Embedding
	vec := make([]float32, len(data))
	for i, v := range data {
		vec[i] = float32(v)
	}
	return vec, nil
}

// classify separates failures worth retrying from ones the input caused.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError {
			return &domain.IOError{Op: "openai embeddings", Err: err}
		}
		return fmt.Errorf("openai: %w", err)
	}
	return &domain.IOError{Op: "openai embeddings", Err: err}
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}
