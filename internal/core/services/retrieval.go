package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
	"github.com/custodia-labs/onboard-rag/internal/logger"
	"github.com/custodia-labs/onboard-rag/internal/postprocessors/chunker"
	"github.com/custodia-labs/onboard-rag/internal/ranker"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService ingests documents and answers similarity queries.
type RetrievalService struct {
	store    driven.CorpusStore
	embedder driven.Embedder
	decoder  driven.TextDecoder
	chunker  *chunker.Processor

	storeTimeout time.Duration
	concurrency  int
	defaultTopK  int
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithStoreTimeout bounds each call to the corpus store. Zero disables the bound.
func WithStoreTimeout(d time.Duration) RetrievalOption {
	return func(s *RetrievalService) {
		s.storeTimeout = d
	}
}

// WithConcurrency sets how many chunks are embedded in parallel.
func WithConcurrency(n int) RetrievalOption {
	return func(s *RetrievalService) {
		s.concurrency = n
	}
}

// WithDefaultTopK sets the result count used when a query asks for none.
func WithDefaultTopK(k int) RetrievalOption {
	return func(s *RetrievalService) {
		s.defaultTopK = k
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	store driven.CorpusStore,
	embedder driven.Embedder,
	decoder driven.TextDecoder,
	chunk *chunker.Processor,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		store:        store,
		embedder:     embedder,
		decoder:      decoder,
		chunker:      chunk,
		storeTimeout: domain.DefaultStoreTimeout,
		concurrency:  domain.DefaultEmbedConcurrency,
		defaultTopK:  domain.DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.chunker == nil {
		s.chunker = chunker.New()
	}
	return s
}

// Ingest decodes, chunks and embeds an uploaded document, then stores the
// document and all of its chunks in a single transaction. If any chunk fails
// to embed nothing is written.
func (s *RetrievalService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	verr := &domain.ValidationError{}
	if _, err := uuid.Parse(req.TenantID); err != nil {
		verr.Add("tenant_id", "must be a UUID")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		verr.Add("title", "must not be empty")
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	text, err := s.decoder.Decode(req.Content, req.ContentType)
	if err != nil {
		return nil, err
	}

	// Fail on an unknown tenant before spending embedding calls.
	if err := s.requireTenant(ctx, req.TenantID); err != nil {
		return nil, err
	}

	version := strings.TrimSpace(req.Version)
	if version == "" {
		version = domain.DefaultDocumentVersion
	}

	doc := &domain.Document{
		ID:        uuid.New().String(),
		TenantID:  req.TenantID,
		Title:     title,
		Category:  strings.TrimSpace(req.Category),
		Version:   version,
		Status:    domain.StatusPublished,
		CreatedAt: time.Now().UTC(),
	}

	chunks := s.chunker.Process(doc.ID, text)
	logger.Debug("chunked document",
		"document_id", doc.ID, "chars", len([]rune(text)), "chunks", len(chunks),
		"size", s.chunker.ChunkSize(), "overlap", s.chunker.Overlap())

	if err := s.embedChunks(ctx, chunks); err != nil {
		logger.Warn("embedding failed, nothing written", "document_id", doc.ID, "error", err)
		return nil, err
	}

	err = s.withStoreTimeout(ctx, func(ctx context.Context) error {
		return s.store.Write(ctx, func(w driven.CorpusWriter) error {
			if err := w.AppendDocument(ctx, doc); err != nil {
				return err
			}
			if len(chunks) == 0 {
				return nil
			}
			return w.AppendChunks(ctx, doc.ID, chunks)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	logger.Info("ingested document", "tenant_id", doc.TenantID, "document_id", doc.ID, "chunks", len(chunks))
	return &domain.IngestResult{DocumentID: doc.ID, ChunkCount: len(chunks)}, nil
}

// embedChunks fills in every chunk's embedding, running up to s.concurrency
// calls at once. The first failure cancels the rest.
func (s *RetrievalService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	dims := s.embedder.Dimensions()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range chunks {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				return &domain.EmbeddingError{Chunk: i, Err: err}
			}
			if len(vec) != dims {
				return &domain.EmbeddingError{
					Chunk: i,
					Err:   fmt.Errorf("%w: got %d values, want %d", domain.ErrDimensionMismatch, len(vec), dims),
				}
			}
			chunks[i].Embedding = vec
			return nil
		})
	}
	return g.Wait()
}

// Query embeds the query text and ranks the tenant's chunks against it.
func (s *RetrievalService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	logger.Section("Query")

	verr := &domain.ValidationError{}
	if _, err := uuid.Parse(req.TenantID); err != nil {
		verr.Add("tenant_id", "must be a UUID")
	}
	if strings.TrimSpace(req.Query) == "" {
		verr.Add("query", "must not be empty")
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	k := req.TopK
	if k == 0 {
		k = s.defaultTopK
	}
	k = domain.ClampTopK(k)
	logger.Debug("query", "tenant_id", req.TenantID, "text", req.Query, "top_k", k)

	if err := s.requireTenant(ctx, req.TenantID); err != nil {
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, &domain.EmbeddingError{Chunk: -1, Err: err}
	}

	var records []domain.ChunkRecord
	err = s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.store.QueryChunksForTenant(ctx, req.TenantID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	logger.Debug("loaded corpus", "chunks", len(records))

	candidates := make([]ranker.Candidate, len(records))
	for i, r := range records {
		candidates[i] = ranker.Candidate{Index: i, Vector: r.Embedding}
	}
	ranked, err := ranker.Rank(vec, candidates, k)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	result := &domain.QueryResult{
		Query:   req.Query,
		Results: make([]domain.RankedChunk, len(ranked)),
	}
	for i, r := range ranked {
		rec := records[r.Index]
		result.Results[i] = domain.RankedChunk{
			ChunkID:         rec.ChunkID,
			DocumentID:      rec.DocumentID,
			Content:         rec.Content,
			Section:         rec.Section,
			DocumentTitle:   rec.DocumentTitle,
			DocumentVersion: rec.DocumentVersion,
			Score:           r.Score,
		}
	}

	logger.Info("query answered", "results", len(result.Results))
	return result, nil
}

// GetDocument retrieves a document by ID.
func (s *RetrievalService) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc *domain.Document
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.store.GetDocument(ctx, documentID)
		return err
	})
	return doc, err
}

// ListDocuments returns a tenant's documents in insertion order.
func (s *RetrievalService) ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, domain.NewValidationError("tenant_id", "must be a UUID")
	}
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	var docs []domain.Document
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		docs, err = s.store.ListDocuments(ctx, tenantID)
		return err
	})
	return docs, err
}

// DeleteDocument removes a document and its chunks.
func (s *RetrievalService) DeleteDocument(ctx context.Context, documentID string) error {
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		return s.store.DeleteDocument(ctx, documentID)
	})
	if err != nil {
		return err
	}
	logger.Info("deleted document", "document_id", documentID)
	return nil
}

func (s *RetrievalService) requireTenant(ctx context.Context, tenantID string) error {
	return s.withStoreTimeout(ctx, func(ctx context.Context) error {
		_, err := s.store.GetTenant(ctx, tenantID)
		return err
	})
}

// withStoreTimeout runs fn under the store deadline. A deadline that expires
// is reported as a retryable IOError whatever the adapter returned.
func (s *RetrievalService) withStoreTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.storeTimeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := fn(tctx)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !domain.IsRetryable(err) {
		return &domain.IOError{Op: "store", Err: context.DeadlineExceeded}
	}
	return err
}
