// Package container wires the driven adapters into the core services.
// It is the composition root shared by the CLI entry point and tests.
package container

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
	"github.com/custodia-labs/onboard-rag/internal/core/services"
	"github.com/custodia-labs/onboard-rag/internal/logger"
	"github.com/custodia-labs/onboard-rag/internal/normalisers/text"
	"github.com/custodia-labs/onboard-rag/internal/postprocessors/chunker"
)

// EnvAliases maps conventional environment variables to configuration keys.
var EnvAliases = map[string]string{
	"OPENAI_API_KEY":  services.KeyEmbedAPIKey,
	"ONBOARD_RAG_DSN": services.KeyStorageDSN,
}

// Options are the command-line overrides applied on top of configuration.
type Options struct {
	// ConfigDir holds config.toml, .env and the default corpus.db.
	// Empty means ~/.onboard-rag.
	ConfigDir string

	// DSN overrides storage.dsn when set.
	DSN string

	// Verbose forces debug logging on.
	Verbose bool
}

// Container holds the wired services and the resources they own.
type Container struct {
	Settings         domain.AppSettings
	SettingsService  *services.SettingsService
	TenantService    *services.TenantService
	RetrievalService *services.RetrievalService

	configDir string
	dsn       string
	store     driven.CorpusStore
}

// New loads configuration and opens the corpus store.
func New(ctx context.Context, opts Options) (*Container, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	configDir := filepath.Dir(configStore.Path())

	if err := configStore.LoadEnv(EnvAliases, filepath.Join(configDir, ".env"), ".env"); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if opts.DSN != "" {
		settings.Storage.DSN = opts.DSN
	}
	if opts.Verbose {
		settings.Verbose = true
	}
	logger.SetVerbose(settings.Verbose)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	embedder, err := ai.CreateEmbedder(settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	dsn := ResolveDSN(settings.Storage.DSN, configDir)
	logger.Debug("opening corpus store", "backend", storage.Backend(dsn), "dimensions", embedder.Dimensions())

	store, err := storage.Open(ctx, dsn, embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("opening corpus store: %w", err)
	}

	chunk := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	retrieval := services.NewRetrievalService(store, embedder, text.New(), chunk,
		services.WithStoreTimeout(settings.Storage.Timeout),
		services.WithConcurrency(settings.Embedding.Concurrency),
		services.WithDefaultTopK(settings.Query.DefaultTopK),
	)

	return &Container{
		Settings:         *settings,
		SettingsService:  settingsService,
		TenantService:    services.NewTenantService(store),
		RetrievalService: retrieval,
		configDir:        configDir,
		dsn:              dsn,
		store:            store,
	}, nil
}

// ResolveDSN makes a relative SQLite path relative to the config directory.
// Postgres URLs, memory:// and absolute paths are returned unchanged.
func ResolveDSN(dsn, configDir string) string {
	if storage.Backend(dsn) != "sqlite" {
		return dsn
	}
	path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "file:")
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Container) ConfigDir() string {
	return c.configDir
}

// DSN returns the resolved store DSN.
func (c *Container) DSN() string {
	return c.dsn
}

// Close releases the corpus store.
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing corpus store: %w", err)
	}
	return nil
}
