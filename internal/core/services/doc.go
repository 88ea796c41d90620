// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RetrievalService owns the ingestion pipeline (decode, chunk, embed, write)
// and the query pipeline (embed, load, rank). TenantService and
// SettingsService are thin wrappers over the corpus and config stores.
package services
