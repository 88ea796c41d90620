package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
	"github.com/custodia-labs/onboard-rag/internal/logger"
)

// Ensure TenantService implements the interface.
var _ driving.TenantService = (*TenantService)(nil)

// TenantService manages tenants.
type TenantService struct {
	store driven.CorpusStore
}

// NewTenantService creates a new tenant service.
func NewTenantService(store driven.CorpusStore) *TenantService {
	return &TenantService{store: store}
}

// Create registers a tenant under a fresh UUID.
func (s *TenantService) Create(ctx context.Context, name string) (*domain.Tenant, error) {
	name, err := domain.ValidateTenantName(name)
	if err != nil {
		return nil, err
	}

	tenant := domain.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	logger.Info("created tenant", "tenant_id", tenant.ID, "name", tenant.Name)
	return &tenant, nil
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Get retrieves a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	return s.store.GetTenant(ctx, id)
}

// Rename changes a tenant's display name and returns the updated tenant.
func (s *TenantService) Rename(ctx context.Context, id, name string) (*domain.Tenant, error) {
	name, err := domain.ValidateTenantName(name)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "tenant", ID: id}
	}
	if err := s.store.RenameTenant(ctx, id, name); err != nil {
		return nil, err
	}
	return s.store.GetTenant(ctx, id)
}
