// Package mcp provides an MCP (Model Context Protocol) server adapter for onboard-rag.
// It lets AI assistants ingest documents into a tenant's corpus and query it.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrMissingTenantService is returned when the tenant service is not provided.
	ErrMissingTenantService = errors.New("mcp: tenant service is required")
)
