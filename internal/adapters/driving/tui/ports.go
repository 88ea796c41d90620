// Package tui provides an interactive terminal user interface for querying
// one tenant's corpus. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses, plus the tenant it is scoped to.
type Ports struct {
	// Retrieval answers queries and lists documents.
	Retrieval driving.RetrievalService

	// Tenant resolves the tenant's display name.
	Tenant driving.TenantService

	// TenantID is the tenant every query is scoped to.
	TenantID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Tenant == nil {
		return ErrMissingTenantService
	}
	if p.TenantID == "" {
		return ErrMissingTenant
	}
	return nil
}
