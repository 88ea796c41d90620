package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	original := version
	SetVersion("test-version-1.0.0")
	t.Cleanup(func() { version = original })

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "onboard-rag version test-version-1.0.0")
}

func TestVersionCmd_DisplaysDevByDefault(t *testing.T) {
	original := version
	version = "dev"
	t.Cleanup(func() { version = original })

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "onboard-rag version dev")
}
