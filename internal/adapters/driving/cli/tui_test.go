package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

func stubTUI(t *testing.T) **tui.App {
	t.Helper()
	original := runTUIApp
	var got *tui.App
	runTUIApp = func(app *tui.App) error {
		got = app
		return nil
	}
	t.Cleanup(func() { runTUIApp = original })
	return &got
}

func TestTuiCmd_Use(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.NotNil(t, tuiCmd.Flags().Lookup("tenant"))
	assert.NotNil(t, tuiCmd.Flags().Lookup("top-k"))
}

func TestTuiCmd_LaunchesApp(t *testing.T) {
	env := setupTestServices(t)
	got := stubTUI(t)

	_, err := run(t, "tui", "--tenant", env.tenant.ID, "-k", "3")

	require.NoError(t, err)
	require.NotNil(t, *got)

	// The app resolves the same tenant the command checked.
	batch, ok := (*got).Init()().(tea.BatchMsg)
	require.True(t, ok)
	var loaded *messages.TenantLoaded
	for _, c := range batch {
		if msg, ok := c().(messages.TenantLoaded); ok {
			loaded = &msg
		}
	}
	require.NotNil(t, loaded)
	require.NoError(t, loaded.Err)
	assert.Equal(t, env.tenant.ID, loaded.Tenant.ID)
	assert.Equal(t, "Acme", loaded.Tenant.Name)
}

func TestTuiCmd_Errors(t *testing.T) {
	t.Run("missing tenant", func(t *testing.T) {
		setupTestServices(t)
		got := stubTUI(t)

		_, err := run(t, "tui")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "--tenant is required")
		assert.Nil(t, *got)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		setupTestServices(t)
		got := stubTUI(t)

		_, err := run(t, "tui", "--tenant", "3f1c7e0a-0000-4000-8000-000000000000")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, *got)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Cleanup(resetFlags)
		SetServices(nil)

		_, err := run(t, "tui", "--tenant", "x")

		assert.ErrorIs(t, err, errNotConfigured)
	})
}
