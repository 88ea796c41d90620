package tui

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("tui: retrieval service is required")

	// ErrMissingTenantService is returned when the tenant service is not provided.
	ErrMissingTenantService = errors.New("tui: tenant service is required")

	// ErrMissingTenant is returned when no tenant ID is given.
	ErrMissingTenant = errors.New("tui: tenant id is required")
)
