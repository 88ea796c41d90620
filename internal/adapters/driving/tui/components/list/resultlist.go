// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// ResultList displays ranked chunks in a navigable list.
// The selected chunk can be expanded to show its full text.
type ResultList struct {
	results  []domain.RankedChunk
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	if r.expanded {
		return r.renderExpanded(&r.results[r.selected])
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	// three lines per result
	visibleCount := (r.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.results) {
		end = len(r.results)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(index int, result *domain.RankedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := result.DocumentTitle
	if title == "" {
		title = "(Untitled)"
	}
	if result.DocumentVersion != "" {
		title += " (" + result.DocumentVersion + ")"
	}

	maxTitleLen := r.width - 20
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title = Truncate(title, maxTitleLen)

	score := fmt.Sprintf("%.3f", result.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			r.styles.Score.Render(score)
	}

	sectionLine := r.styles.Section.Render("    " + result.Section)

	maxPreviewLen := r.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := strings.Join(strings.Fields(result.Content), " ")
	previewLine := r.styles.Muted.Render("    " + Truncate(preview, maxPreviewLen))

	return titleLine + "\n" + sectionLine + "\n" + previewLine
}

func (r *ResultList) renderExpanded(result *domain.RankedChunk) string {
	header := r.styles.Subtitle.Render(result.DocumentTitle)
	meta := r.styles.Muted.Render(fmt.Sprintf("%s | %s | score %.3f",
		result.Section, result.DocumentVersion, result.Score))

	wrapWidth := r.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	body := r.styles.Normal.Width(wrapWidth).Render(result.Content)

	return lipgloss.JoinVertical(lipgloss.Left, header, meta, "", body)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the results and resets selection.
func (r *ResultList) SetResults(results []domain.RankedChunk) {
	r.results = results
	r.selected = 0
	r.expanded = false
}

// Results returns the current results.
func (r *ResultList) Results() []domain.RankedChunk {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.RankedChunk {
	if len(r.results) == 0 || r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// ToggleExpanded switches between the list and the full text of the selected result.
func (r *ResultList) ToggleExpanded() {
	if len(r.results) == 0 {
		r.expanded = false
		return
	}
	r.expanded = !r.expanded
}

// Expanded reports whether the selected result is shown in full.
func (r *ResultList) Expanded() bool {
	return r.expanded
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
