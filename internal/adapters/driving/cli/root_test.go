package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/embedding/histogram"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/services"
	"github.com/custodia-labs/onboard-rag/internal/normalisers/text"
	"github.com/custodia-labs/onboard-rag/internal/postprocessors/chunker"
)

// testEnv bundles the services installed for one test.
type testEnv struct {
	retrieval *services.RetrievalService
	tenants   *services.TenantService
	settings  *services.SettingsService
	tenant    *domain.Tenant
}

// setupTestServices installs in-memory services with one tenant, "Acme".
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewCorpusStore(64)
	cfg, err := file.NewConfigStoreAt(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	env := &testEnv{
		retrieval: services.NewRetrievalService(store, histogram.New(64), text.New(),
			chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(5))),
		tenants:  services.NewTenantService(store),
		settings: services.NewSettingsService(cfg),
	}
	env.tenant, err = env.tenants.Create(context.Background(), "Acme")
	require.NoError(t, err)

	SetServices(&Services{Retrieval: env.retrieval, Tenant: env.tenants, Settings: env.settings})
	t.Cleanup(func() {
		SetServices(nil)
		resetFlags()
	})
	return env
}

// resetFlags restores flag variables that persist between Execute calls.
func resetFlags() {
	configDir, dsn, verbose = "", "", false
	tenantFlag = ""
	ingestTitle, ingestCategory, ingestVersion, ingestContentType = "", "", "", ""
	queryTopK, queryJSON = 0, false
	mcpPort = 0
	tuiTopK = 0
	watchDebounce = 0
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	out, err := run(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "onboard-rag")
	assert.Contains(t, out, "--dsn")
	for _, name := range []string{"tenant", "ingest", "query", "document", "mcp", "tui", "watch", "settings", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestRootCmd_BootstrapUsesFlags(t *testing.T) {
	t.Cleanup(func() {
		SetBootstrap(nil)
		SetServices(nil)
		resetFlags()
	})

	var got BootstrapOptions
	closed := false
	SetBootstrap(func(_ context.Context, opts BootstrapOptions) (*Services, error) {
		got = opts
		env := setupTestServices(t)
		return &Services{
			Retrieval: env.retrieval,
			Tenant:    env.tenants,
			Settings:  env.settings,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	})
	SetServices(nil)

	dir := t.TempDir()
	_, err := run(t, "--config", dir, "--dsn", "memory://", "tenant", "list")
	require.NoError(t, err)

	assert.Equal(t, BootstrapOptions{ConfigDir: dir, DSN: "memory://"}, got)

	shutdown()
	assert.True(t, closed)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	t.Cleanup(func() {
		SetBootstrap(nil)
		SetServices(nil)
		resetFlags()
	})

	SetServices(nil)
	SetBootstrap(func(context.Context, BootstrapOptions) (*Services, error) {
		return nil, errors.New("no database")
	})

	_, err := run(t, "tenant", "list")
	assert.EqualError(t, err, "no database")
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	t.Cleanup(func() { SetBootstrap(nil) })

	called := false
	SetBootstrap(func(context.Context, BootstrapOptions) (*Services, error) {
		called = true
		return &Services{}, nil
	})

	_, err := run(t, "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRootCmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := run(t, "tenant", "list")
	assert.ErrorIs(t, err, errNotConfigured)
}
