package driving

import (
	"context"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// RetrievalService ingests documents into a tenant's corpus and answers
// similarity queries against it.
type RetrievalService interface {
	// Ingest chunks, embeds and stores an uploaded document atomically.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// Query returns the tenant's chunks most similar to the query text, best first.
	// An empty corpus yields an empty result, not an error.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)

	// GetDocument retrieves one document.
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)

	// ListDocuments returns a tenant's documents.
	ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, documentID string) error
}
