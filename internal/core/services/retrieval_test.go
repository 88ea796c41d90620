package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/embedding/histogram"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
	"github.com/custodia-labs/onboard-rag/internal/normalisers/text"
	"github.com/custodia-labs/onboard-rag/internal/postprocessors/chunker"
)

const testDims = 128

// mockEmbedder wraps the histogram embedder and can be told to fail or to
// return vectors of the wrong size.
type mockEmbedder struct {
	inner    *histogram.Embedder
	failOn   string
	err      error
	wrongDim bool
	calls    atomic.Int32
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{inner: histogram.New(testDims)}
}

func (m *mockEmbedder) Embed(ctx context.Context, s string) ([]float32, error) {
	m.calls.Add(1)
	if m.failOn != "" && strings.Contains(s, m.failOn) {
		return nil, m.err
	}
	if m.wrongDim {
		return make([]float32, testDims-1), nil
	}
	return m.inner.Embed(ctx, s)
}

func (m *mockEmbedder) Dimensions() int   { return testDims }
func (m *mockEmbedder) ModelName() string { return "mock" }

type fixture struct {
	store    *memory.CorpusStore
	embedder *mockEmbedder
	svc      *RetrievalService
	tenants  *TenantService
}

func newFixture(t *testing.T, opts ...RetrievalOption) *fixture {
	t.Helper()
	store := memory.NewCorpusStore(testDims)
	embedder := newMockEmbedder()
	svc := NewRetrievalService(store, embedder, text.New(),
		chunker.New(chunker.WithChunkSize(5), chunker.WithOverlap(2)), opts...)
	return &fixture{
		store:    store,
		embedder: embedder,
		svc:      svc,
		tenants:  NewTenantService(store),
	}
}

func (f *fixture) tenant(t *testing.T, name string) string {
	t.Helper()
	tenant, err := f.tenants.Create(context.Background(), name)
	require.NoError(t, err)
	return tenant.ID
}

func TestRetrievalService_IngestThenQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	res, err := f.svc.Ingest(ctx, domain.IngestRequest{
		TenantID: tenantID,
		Title:    "Handbook",
		Content:  []byte("alpha beta gamma"),
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.ChunkCount, 4)
	assert.NotEmpty(t, res.DocumentID)

	out, err := f.svc.Query(ctx, domain.QueryRequest{TenantID: tenantID, Query: "beta", TopK: 3})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "beta", out.Query)
	assert.Contains(t, out.Results[0].Content, "beta")
	assert.Equal(t, "Handbook", out.Results[0].DocumentTitle)
	assert.Equal(t, domain.DefaultDocumentVersion, out.Results[0].DocumentVersion)
	assert.Equal(t, res.DocumentID, out.Results[0].DocumentID)

	for i := 1; i < len(out.Results); i++ {
		assert.GreaterOrEqual(t, out.Results[i-1].Score, out.Results[i].Score)
	}
}

func TestRetrievalService_Ingest_StoresDocumentMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	res, err := f.svc.Ingest(ctx, domain.IngestRequest{
		TenantID: tenantID,
		Title:    "  IT Setup  ",
		Category: "it",
		Version:  "v3",
		Content:  []byte("laptop vpn"),
	})
	require.NoError(t, err)

	doc, err := f.svc.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "IT Setup", doc.Title)
	assert.Equal(t, "it", doc.Category)
	assert.Equal(t, "v3", doc.Version)
	assert.Equal(t, domain.StatusPublished, doc.Status)
	assert.Equal(t, res.ChunkCount, doc.ChunkCount)
}

func TestRetrievalService_Ingest_EmptyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	res, err := f.svc.Ingest(ctx, domain.IngestRequest{TenantID: tenantID, Title: "Blank"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ChunkCount)

	docs, err := f.svc.ListDocuments(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, docs[0].ChunkCount)
}

func TestRetrievalService_Ingest_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{TenantID: "nope", Title: " "})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := []string{verr.Fields[0].Field, verr.Fields[1].Field}
	assert.ElementsMatch(t, []string{"tenant_id", "title"}, fields)
	assert.Zero(t, f.embedder.calls.Load())
}

func TestRetrievalService_Ingest_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		TenantID: uuid.New().String(),
		Title:    "Doc",
		Content:  []byte("text"),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.embedder.calls.Load(), "no embedding calls for an unknown tenant")
}

func TestRetrievalService_Ingest_UnsupportedContentType(t *testing.T) {
	f := newFixture(t)
	tenantID := f.tenant(t, "Acme")

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		TenantID:    tenantID,
		Title:       "Scan",
		Content:     []byte("%PDF-1.7"),
		ContentType: "application/pdf",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_Ingest_EmbeddingFailureWritesNothing(t *testing.T) {
	f := newFixture(t, WithConcurrency(2))
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	f.embedder.failOn = "gam"
	f.embedder.err = errors.New("model rejected input")

	_, err := f.svc.Ingest(ctx, domain.IngestRequest{
		TenantID: tenantID,
		Title:    "Handbook",
		Content:  []byte("alpha beta gamma"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.False(t, domain.IsRetryable(err))

	var eerr *domain.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.GreaterOrEqual(t, eerr.Chunk, 0)

	docs, err := f.svc.ListDocuments(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	records, err := f.store.QueryChunksForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRetrievalService_Ingest_ProviderOutageIsRetryable(t *testing.T) {
	f := newFixture(t)
	tenantID := f.tenant(t, "Acme")

	f.embedder.failOn = "a"
	f.embedder.err = &domain.IOError{Op: "embed", Err: context.DeadlineExceeded}

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		TenantID: tenantID,
		Title:    "Handbook",
		Content:  []byte("alpha"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.True(t, domain.IsRetryable(err))
}

func TestRetrievalService_Ingest_WrongDimensions(t *testing.T) {
	f := newFixture(t)
	tenantID := f.tenant(t, "Acme")
	f.embedder.wrongDim = true

	_, err := f.svc.Ingest(context.Background(), domain.IngestRequest{
		TenantID: tenantID,
		Title:    "Handbook",
		Content:  []byte("alpha"),
	})
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRetrievalService_Query_EmptyCorpus(t *testing.T) {
	f := newFixture(t)
	tenantID := f.tenant(t, "Acme")

	out, err := f.svc.Query(context.Background(), domain.QueryRequest{TenantID: tenantID, Query: "anything"})
	require.NoError(t, err)
	require.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}

func TestRetrievalService_Query_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.tenant(t, "Acme")
	globex := f.tenant(t, "Globex")

	_, err := f.svc.Ingest(ctx, domain.IngestRequest{TenantID: acme, Title: "Secret", Content: []byte("acme payroll secrets")})
	require.NoError(t, err)
	_, err = f.svc.Ingest(ctx, domain.IngestRequest{TenantID: globex, Title: "Public", Content: []byte("globex welcome")})
	require.NoError(t, err)

	out, err := f.svc.Query(ctx, domain.QueryRequest{TenantID: globex, Query: "acme payroll secrets", TopK: 10})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	for _, r := range out.Results {
		assert.Equal(t, "Public", r.DocumentTitle)
		assert.NotContains(t, r.Content, "payroll")
	}
}

func TestRetrievalService_Query_TopK(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	// 40 characters at size 5 overlap 2 gives 13 chunks
	_, err := f.svc.Ingest(ctx, domain.IngestRequest{
		TenantID: tenantID,
		Title:    "Long",
		Content:  []byte(strings.Repeat("abcdefgh", 5)),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		topK int
		want int
	}{
		{"zero uses default", 0, domain.DefaultTopK},
		{"negative clamps to one", -3, 1},
		{"within bounds", 7, 7},
		{"above max clamps", 50, domain.MaxTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.svc.Query(ctx, domain.QueryRequest{TenantID: tenantID, Query: "abc", TopK: tt.topK})
			require.NoError(t, err)
			assert.Len(t, out.Results, tt.want)
		})
	}
}

func TestRetrievalService_Query_DefaultTopKOption(t *testing.T) {
	f := newFixture(t, WithDefaultTopK(2))
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	_, err := f.svc.Ingest(ctx, domain.IngestRequest{TenantID: tenantID, Title: "Doc", Content: []byte("alpha beta gamma")})
	require.NoError(t, err)

	out, err := f.svc.Query(ctx, domain.QueryRequest{TenantID: tenantID, Query: "beta"})
	require.NoError(t, err)
	assert.Len(t, out.Results, 2)
}

func TestRetrievalService_Query_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		req   domain.QueryRequest
		field string
	}{
		{"blank query", domain.QueryRequest{TenantID: uuid.New().String(), Query: "   "}, "query"},
		{"bad tenant id", domain.QueryRequest{TenantID: "acme", Query: "beta"}, "tenant_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Query(context.Background(), tt.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestRetrievalService_Query_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Query(context.Background(), domain.QueryRequest{TenantID: uuid.New().String(), Query: "beta"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrievalService_Query_EmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	tenantID := f.tenant(t, "Acme")
	f.embedder.failOn = "beta"
	f.embedder.err = errors.New("boom")

	_, err := f.svc.Query(context.Background(), domain.QueryRequest{TenantID: tenantID, Query: "beta"})

	var eerr *domain.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, -1, eerr.Chunk)
}

func TestRetrievalService_DeleteDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := f.tenant(t, "Acme")

	res, err := f.svc.Ingest(ctx, domain.IngestRequest{TenantID: tenantID, Title: "Doc", Content: []byte("alpha beta gamma")})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDocument(ctx, res.DocumentID))

	_, err = f.svc.GetDocument(ctx, res.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := f.svc.Query(ctx, domain.QueryRequest{TenantID: tenantID, Query: "beta"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)

	assert.ErrorIs(t, f.svc.DeleteDocument(ctx, res.DocumentID), domain.ErrNotFound)
}

func TestRetrievalService_ListDocuments_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListDocuments(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ListDocuments(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// slowStore blocks reads until the context is done.
type slowStore struct {
	driven.CorpusStore
}

func (s slowStore) GetTenant(ctx context.Context, _ string) (*domain.Tenant, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetrievalService_StoreTimeoutIsRetryableIOError(t *testing.T) {
	store := slowStore{CorpusStore: memory.NewCorpusStore(testDims)}
	svc := NewRetrievalService(store, newMockEmbedder(), text.New(), nil, WithStoreTimeout(20*time.Millisecond))

	_, err := svc.Query(context.Background(), domain.QueryRequest{TenantID: uuid.New().String(), Query: "beta"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, domain.IsRetryable(err))
}

func TestRetrievalService_CallerCancellationIsNotRewritten(t *testing.T) {
	store := slowStore{CorpusStore: memory.NewCorpusStore(testDims)}
	svc := NewRetrievalService(store, newMockEmbedder(), text.New(), nil, WithStoreTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Query(ctx, domain.QueryRequest{TenantID: uuid.New().String(), Query: "beta"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrIO)
}
