package mcp

import (
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ingests and queries documents.
	Retrieval driving.RetrievalService

	// Tenant manages tenants.
	Tenant driving.TenantService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Tenant == nil {
		return ErrMissingTenantService
	}
	return nil
}
