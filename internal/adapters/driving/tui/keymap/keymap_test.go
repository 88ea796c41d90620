package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Matches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		keyStr  string
		binding key.Binding
		want    bool
	}{
		{"q quits", "q", km.Quit, true},
		{"ctrl+c quits", "ctrl+c", km.Quit, true},
		{"k moves up", "k", km.Up, true},
		{"down arrow moves down", "down", km.Down, true},
		{"enter submits", "enter", km.Submit, true},
		{"space expands", " ", km.Expand, true},
		{"d deletes", "d", km.Delete, true},
		{"x does not delete", "x", km.Delete, false},
		{"enter is not back", "enter", km.Back, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.keyStr, tt.binding))
		})
	}
}

func TestHelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 2)
	assert.Len(t, km.ResultsHelp(), 5)
	assert.Len(t, km.DocumentsHelp(), 5)
	assert.Len(t, km.FullHelp(), 4)

	for _, b := range km.ResultsHelp() {
		assert.NotEmpty(t, b.Help().Desc)
	}
}
