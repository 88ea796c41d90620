package driving

import (
	"context"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// TenantService manages tenants.
type TenantService interface {
	// Create registers a new tenant with a generated ID.
	Create(ctx context.Context, name string) (*domain.Tenant, error)

	// List returns all tenants.
	List(ctx context.Context) ([]domain.Tenant, error)

	// Get retrieves a tenant by ID.
	Get(ctx context.Context, id string) (*domain.Tenant, error)

	// Rename changes a tenant's display name.
	Rename(ctx context.Context, id, name string) (*domain.Tenant, error)
}
