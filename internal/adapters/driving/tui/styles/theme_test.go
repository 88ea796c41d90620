package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme().Primary, s.Theme().Primary)
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Primary = lipgloss.Color("#000000")

	s := NewStyles(theme)

	assert.Same(t, theme, s.Theme())
	assert.Equal(t, lipgloss.Color("#000000"), s.Title.GetForeground())
}

func TestDefaultStyles_RenderPlainText(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Score.Render("0.93"), "0.93")
	assert.Contains(t, s.Section.Render("section-2"), "section-2")
	assert.True(t, s.Title.GetBold())
}
