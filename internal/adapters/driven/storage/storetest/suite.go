// Package storetest holds the behavioural tests every driven.CorpusStore must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Dimensions is the vector size the suite writes. Stores under test must be
// opened with it.
const Dimensions = 3

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) driven.CorpusStore

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s driven.CorpusStore)
	}{
		{"tenant lifecycle", testTenantLifecycle},
		{"duplicate tenant", testDuplicateTenant},
		{"append and query", testAppendAndQuery},
		{"tenant isolation", testTenantIsolation},
		{"unknown tenant", testUnknownTenant},
		{"failed write rolls back", testRollback},
		{"shape validation", testShapeValidation},
		{"delete cascades", testDeleteCascades},
		{"empty document", testEmptyDocument},
		{"concurrent writers", testConcurrentWriters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// NewTenant creates a tenant and returns it.
func NewTenant(t *testing.T, s driven.CorpusStore, name string) domain.Tenant {
	t.Helper()
	tenant := domain.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

// AppendDocument writes a document with one chunk per content string.
func AppendDocument(t *testing.T, s driven.CorpusStore, tenantID, title string, contents ...string) domain.Document {
	t.Helper()
	doc, chunks := buildDocument(tenantID, title, contents...)
	err := s.Write(context.Background(), func(w driven.CorpusWriter) error {
		if err := w.AppendDocument(context.Background(), &doc); err != nil {
			return err
		}
		return w.AppendChunks(context.Background(), doc.ID, chunks)
	})
	require.NoError(t, err)
	return doc
}

func buildDocument(tenantID, title string, contents ...string) (domain.Document, []domain.Chunk) {
	doc := domain.Document{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Title:     title,
		Version:   domain.DefaultDocumentVersion,
		Status:    domain.StatusPublished,
		CreatedAt: time.Now().UTC(),
	}
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   i,
			Section:    domain.SectionLabel(i),
			Content:    c,
			Embedding:  []float32{float32(i), 1, 0.5},
		}
	}
	return doc, chunks
}

func testTenantLifecycle(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()

	tenants, err := s.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)

	acme := NewTenant(t, s, "Acme")
	globex := NewTenant(t, s, "Globex")

	got, err := s.GetTenant(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.True(t, acme.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, s.RenameTenant(ctx, globex.ID, "Globex Corp"))
	got, err = s.GetTenant(ctx, globex.ID)
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", got.Name)

	tenants, err = s.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, acme.ID, tenants[0].ID)
	assert.Equal(t, globex.ID, tenants[1].ID)

	missing := uuid.New().String()
	_, err = s.GetTenant(ctx, missing)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.RenameTenant(ctx, missing, "x"), domain.ErrNotFound))
}

func testDuplicateTenant(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	acme := NewTenant(t, s, "Acme")

	err := s.CreateTenant(ctx, domain.Tenant{ID: acme.ID, Name: "Acme again", CreatedAt: time.Now().UTC()})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.False(t, domain.IsRetryable(err))

	tenants, err := s.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].Name)
}

func testAppendAndQuery(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")

	first := AppendDocument(t, s, tenant.ID, "Handbook", "one", "two", "three")
	second := AppendDocument(t, s, tenant.ID, "Benefits", "four")

	records, err := s.QueryChunksForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, records, 4)

	want := []string{"one", "two", "three", "four"}
	for i, rec := range records {
		assert.Equal(t, want[i], rec.Content)
		assert.Len(t, rec.Embedding, Dimensions)
	}
	assert.Equal(t, first.ID, records[0].DocumentID)
	assert.Equal(t, "Handbook", records[0].DocumentTitle)
	assert.Equal(t, "v1", records[0].DocumentVersion)
	assert.Equal(t, "section-2", records[1].Section)
	assert.Equal(t, []float32{2, 1, 0.5}, records[2].Embedding)
	assert.Equal(t, second.ID, records[3].DocumentID)

	doc, err := s.GetDocument(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Equal(t, domain.StatusPublished, doc.Status)
	assert.Equal(t, tenant.ID, doc.TenantID)

	docs, err := s.ListDocuments(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID)
	assert.Equal(t, 1, docs[1].ChunkCount)
}

func testTenantIsolation(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	a := NewTenant(t, s, "A")
	b := NewTenant(t, s, "B")

	AppendDocument(t, s, a.ID, "A doc", "secret of a")
	docB := AppendDocument(t, s, b.ID, "B doc", "secret of b")

	records, err := s.QueryChunksForTenant(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "secret of a", records[0].Content)

	docs, err := s.ListDocuments(ctx, a.ID)
	require.NoError(t, err)
	for _, d := range docs {
		assert.NotEqual(t, docB.ID, d.ID)
	}

	records, err = s.QueryChunksForTenant(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testUnknownTenant(t *testing.T, s driven.CorpusStore) {
	doc, chunks := buildDocument(uuid.New().String(), "Orphan", "text")
	err := s.Write(context.Background(), func(w driven.CorpusWriter) error {
		if err := w.AppendDocument(context.Background(), &doc); err != nil {
			return err
		}
		return w.AppendChunks(context.Background(), doc.ID, chunks)
	})

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "tenant", nf.Kind)
}

func testRollback(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")
	boom := errors.New("embedding exploded")

	doc, chunks := buildDocument(tenant.ID, "Half written", "a", "b")
	err := s.Write(ctx, func(w driven.CorpusWriter) error {
		if err := w.AppendDocument(ctx, &doc); err != nil {
			return err
		}
		if err := w.AppendChunks(ctx, doc.ID, chunks[:1]); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	docs, err := s.ListDocuments(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	records, err := s.QueryChunksForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testShapeValidation(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")

	tests := []struct {
		name   string
		mutate func(c *domain.Chunk)
	}{
		{"wrong dimension", func(c *domain.Chunk) { c.Embedding = []float32{1} }},
		{"empty content", func(c *domain.Chunk) { c.Content = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, chunks := buildDocument(tenant.ID, "Bad", "text")
			tt.mutate(&chunks[0])
			err := s.Write(ctx, func(w driven.CorpusWriter) error {
				if err := w.AppendDocument(ctx, &doc); err != nil {
					return err
				}
				return w.AppendChunks(ctx, doc.ID, chunks)
			})
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}

	docs, err := s.ListDocuments(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testDeleteCascades(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")
	gone := AppendDocument(t, s, tenant.ID, "Old policy", "x", "y")
	kept := AppendDocument(t, s, tenant.ID, "New policy", "z")

	require.NoError(t, s.DeleteDocument(ctx, gone.ID))

	_, err := s.GetDocument(ctx, gone.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	records, err := s.QueryChunksForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, kept.ID, records[0].DocumentID)

	assert.True(t, errors.Is(s.DeleteDocument(ctx, gone.ID), domain.ErrNotFound))
}

func testEmptyDocument(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")
	doc := AppendDocument(t, s, tenant.ID, "Blank")

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ChunkCount)
}

func testConcurrentWriters(t *testing.T, s driven.CorpusStore) {
	ctx := context.Background()
	tenant := NewTenant(t, s, "Acme")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, chunks := buildDocument(tenant.ID, "Parallel", "p1", "p2")
			errs <- s.Write(ctx, func(w driven.CorpusWriter) error {
				if err := w.AppendDocument(ctx, &doc); err != nil {
					return err
				}
				return w.AppendChunks(ctx, doc.ID, chunks)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := s.QueryChunksForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, records, writers*2)

	// chunks of one document stay adjacent and in position order
	for i := 0; i < len(records); i += 2 {
		assert.Equal(t, records[i].DocumentID, records[i+1].DocumentID)
		assert.Equal(t, "p1", records[i].Content)
		assert.Equal(t, "p2", records[i+1].Content)
	}
}
