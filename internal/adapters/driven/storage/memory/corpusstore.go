// Package memory provides an in-memory driven.CorpusStore for tests and
// ephemeral runs. Nothing survives the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore keeps tenants, documents and chunks in slices guarded by one RWMutex.
// Slices preserve insertion order, which is the store's tie-break order.
type CorpusStore struct {
	mu        sync.RWMutex
	dims      int
	tenants   []domain.Tenant
	documents []domain.Document
	chunks    map[string][]domain.Chunk // by document ID
}

// NewCorpusStore creates an empty store for vectors of the given dimension.
func NewCorpusStore(dims int) *CorpusStore {
	return &CorpusStore{
		dims:   dims,
		chunks: make(map[string][]domain.Chunk),
	}
}

// CreateTenant stores a new tenant.
func (s *CorpusStore) CreateTenant(_ context.Context, tenant domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenantIndex(tenant.ID) >= 0 {
		return domain.NewValidationError("id", "tenant "+tenant.ID+" already exists")
	}
	s.tenants = append(s.tenants, tenant)
	return nil
}

// GetTenant retrieves a tenant by ID.
func (s *CorpusStore) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tenantIndex(id)
	if i < 0 {
		return nil, &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	tenant := s.tenants[i]
	return &tenant, nil
}

// ListTenants returns all tenants in creation order.
func (s *CorpusStore) ListTenants(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Tenant{}, s.tenants...), nil
}

// RenameTenant changes a tenant's display name.
func (s *CorpusStore) RenameTenant(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tenantIndex(id)
	if i < 0 {
		return &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	s.tenants[i].Name = name
	return nil
}

// Write stages fn's rows and publishes them only if fn succeeds.
func (s *CorpusStore) Write(ctx context.Context, fn func(driven.CorpusWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &domain.IOError{Op: "write", Err: err}
	}

	w := &writer{store: s, chunks: make(map[string][]domain.Chunk)}
	if err := fn(w); err != nil {
		return err
	}

	s.documents = append(s.documents, w.documents...)
	for id, chunks := range w.chunks {
		s.chunks[id] = append(s.chunks[id], chunks...)
	}
	return nil
}

// writer buffers rows for one Write call. The store lock is held throughout.
type writer struct {
	store     *CorpusStore
	documents []domain.Document
	chunks    map[string][]domain.Chunk
}

func (w *writer) AppendDocument(_ context.Context, doc *domain.Document) error {
	if w.store.tenantIndex(doc.TenantID) < 0 {
		return &domain.NotFoundError{Kind: "tenant", ID: doc.TenantID}
	}
	d := *doc
	d.ChunkCount = 0
	w.documents = append(w.documents, d)
	return nil
}

func (w *writer) AppendChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if err := domain.ValidateChunks(chunks, w.store.dims); err != nil {
		return err
	}
	staged := slices.ContainsFunc(w.documents, func(d domain.Document) bool { return d.ID == documentID })
	if !staged && w.store.documentIndex(documentID) < 0 {
		return &domain.NotFoundError{Kind: "document", ID: documentID}
	}
	for _, c := range chunks {
		c.DocumentID = documentID
		c.Embedding = slices.Clone(c.Embedding)
		w.chunks[documentID] = append(w.chunks[documentID], c)
	}
	return nil
}

// QueryChunksForTenant loads the tenant's chunks in insertion order.
func (s *CorpusStore) QueryChunksForTenant(_ context.Context, tenantID string) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []domain.ChunkRecord{}
	for _, doc := range s.documents {
		if doc.TenantID != tenantID {
			continue
		}
		for _, c := range s.chunks[doc.ID] {
			records = append(records, domain.ChunkRecord{
				ChunkID:         c.ID,
				DocumentID:      doc.ID,
				Content:         c.Content,
				Section:         c.Section,
				DocumentTitle:   doc.Title,
				DocumentVersion: doc.Version,
				Embedding:       slices.Clone(c.Embedding),
			})
		}
	}
	return records, nil
}

// GetDocument retrieves a document by ID.
func (s *CorpusStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.documentIndex(id)
	if i < 0 {
		return nil, &domain.NotFoundError{Kind: "document", ID: id}
	}
	doc := s.documents[i]
	doc.ChunkCount = len(s.chunks[id])
	return &doc, nil
}

// ListDocuments returns a tenant's documents in insertion order.
func (s *CorpusStore) ListDocuments(_ context.Context, tenantID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := []domain.Document{}
	for _, doc := range s.documents {
		if doc.TenantID == tenantID {
			doc.ChunkCount = len(s.chunks[doc.ID])
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *CorpusStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.documentIndex(id)
	if i < 0 {
		return &domain.NotFoundError{Kind: "document", ID: id}
	}
	s.documents = slices.Delete(s.documents, i, i+1)
	delete(s.chunks, id)
	return nil
}

// Close is a no-op.
func (s *CorpusStore) Close() error {
	return nil
}

// tenantIndex requires s.mu to be held.
func (s *CorpusStore) tenantIndex(id string) int {
	return slices.IndexFunc(s.tenants, func(t domain.Tenant) bool { return t.ID == id })
}

// documentIndex requires s.mu to be held.
func (s *CorpusStore) documentIndex(id string) int {
	return slices.IndexFunc(s.documents, func(d domain.Document) bool { return d.ID == id })
}
