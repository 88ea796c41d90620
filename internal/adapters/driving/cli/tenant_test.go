package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

func TestTenantCreateCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := run(t, "tenant", "create", "Globex")
	require.NoError(t, err)
	assert.Contains(t, out, "Created tenant Globex")

	tenants, err := env.tenants.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestTenantCreateCmd_Validation(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "tenant", "create", "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = run(t, "tenant", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTenantListCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := run(t, "tenant", "list")
	require.NoError(t, err)
	assert.Contains(t, out, env.tenant.ID)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Total: 1 tenants")
}

func TestTenantGetCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := run(t, "tenant", "get", env.tenant.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Name:     Acme")
	assert.Contains(t, out, "Documents: 0")

	_, err = run(t, "tenant", "get", "00000000-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantRenameCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := run(t, "tenant", "rename", env.tenant.ID, "Acme Corp")
	require.NoError(t, err)
	assert.Contains(t, out, "to Acme Corp")

	got, err := env.tenants.Get(context.Background(), env.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
}
