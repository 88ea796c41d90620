package driven

import (
	"context"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// CorpusStore persists tenants, documents and chunk vectors.
//
// A store owns one long-lived connection handle. Writes are serialized and
// atomic; reads may run concurrently and observe committed data only.
type CorpusStore interface {
	// CreateTenant stores a new tenant.
	CreateTenant(ctx context.Context, tenant domain.Tenant) error

	// GetTenant retrieves a tenant by ID.
	// Returns a *domain.NotFoundError if the tenant does not exist.
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)

	// ListTenants returns all tenants ordered by creation.
	ListTenants(ctx context.Context) ([]domain.Tenant, error)

	// RenameTenant changes a tenant's display name.
	RenameTenant(ctx context.Context, id, name string) error

	// Write runs fn inside one write transaction. Nothing fn writes is
	// visible to readers unless fn returns nil.
	Write(ctx context.Context, fn func(CorpusWriter) error) error

	// QueryChunksForTenant returns every chunk owned by the tenant joined with
	// its document title and version, in insertion order.
	QueryChunksForTenant(ctx context.Context, tenantID string) ([]domain.ChunkRecord, error)

	// GetDocument retrieves a document by ID, including its chunk count.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns a tenant's documents in insertion order.
	ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error)

	// DeleteDocument removes a document and all of its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases the underlying handle.
	Close() error
}

// CorpusWriter appends rows within a CorpusStore.Write transaction.
type CorpusWriter interface {
	// AppendDocument inserts a document row.
	// Returns a *domain.NotFoundError if the owning tenant does not exist.
	AppendDocument(ctx context.Context, doc *domain.Document) error

	// AppendChunks inserts chunks for a document, preserving slice order.
	// Returns a *domain.ValidationError for empty content or wrong vector length.
	AppendChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}
