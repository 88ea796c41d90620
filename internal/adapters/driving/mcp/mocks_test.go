package mcp

import (
	"context"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	ingestReq  domain.IngestRequest
	queryReq   domain.QueryRequest
	ingest     *domain.IngestResult
	query      *domain.QueryResult
	documents  []domain.Document
	document   *domain.Document
	err        error
	deletedIDs []string
}

func (m *mockRetrievalService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.ingestReq = req
	return m.ingest, m.err
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.queryReq = req
	return m.query, m.err
}

func (m *mockRetrievalService) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockRetrievalService) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockRetrievalService) DeleteDocument(_ context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.err
}

// mockTenantService is a mock implementation of driving.TenantService.
type mockTenantService struct {
	tenants []domain.Tenant
	err     error
}

func (m *mockTenantService) Create(_ context.Context, name string) (*domain.Tenant, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := domain.Tenant{ID: "tenant-1", Name: name}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *mockTenantService) List(_ context.Context) ([]domain.Tenant, error) {
	return m.tenants, m.err
}

func (m *mockTenantService) Get(_ context.Context, id string) (*domain.Tenant, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			return &m.tenants[i], nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "tenant", ID: id}
}

func (m *mockTenantService) Rename(_ context.Context, id, name string) (*domain.Tenant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Tenant{ID: id, Name: name}, nil
}

func newTestServer(retrieval *mockRetrievalService, tenant *mockTenantService) (*Server, error) {
	return NewServer(&Ports{Retrieval: retrieval, Tenant: tenant})
}
