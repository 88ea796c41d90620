// Package documents provides the tenant document list view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
)

// ErrNoRetrievalService indicates that no retrieval service was provided.
var ErrNoRetrievalService = errors.New("retrieval service is required")

// View lists the tenant's documents and lets the user delete them.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	retrieval driving.RetrievalService
	tenantID  string
	ctx       context.Context

	documents     []domain.Document
	selected      int
	scrollOffset  int
	confirming    bool
	loading       bool
	notice        string
	err           error
	width, height int
	ready         bool
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService, tenantID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		retrieval: retrieval,
		tenantID:  tenantID,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the tenant's documents.
func (v *View) Load() tea.Cmd {
	v.loading = true
	retrieval, tenantID, ctx := v.retrieval, v.tenantID, v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.DocumentsLoaded{Err: ErrNoRetrievalService}
		}
		docs, err := retrieval.ListDocuments(ctx, tenantID)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) deleteSelected() tea.Cmd {
	doc := v.documents[v.selected]
	retrieval, ctx := v.retrieval, v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.DocumentDeleted{DocumentID: doc.ID, Err: ErrNoRetrievalService}
		}
		return messages.DocumentDeleted{DocumentID: doc.ID, Err: retrieval.DeleteDocument(ctx, doc.ID)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirmKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Deleted " + msg.DocumentID
		return v, v.Load()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Delete):
		if len(v.documents) > 0 {
			v.confirming = true
			v.notice = ""
		}
	case keymap.Matches(key, v.keymap.Reload):
		v.notice = ""
		return v, v.Load()
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	switch msg.String() {
	case "y", "Y":
		return v, v.deleteSelected()
	default:
		v.notice = "Delete cancelled"
		return v, nil
	}
}

func (v *View) visibleRows() int {
	// title, header, blank lines and footer
	rows := v.height - 8
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (v *View) adjustScroll() {
	rows := v.visibleRows()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	}
	if v.selected >= v.scrollOffset+rows {
		v.scrollOffset = v.selected - rows + 1
	}
}

// View renders the documents list.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Documents"))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents in this corpus"))
		b.WriteString("\n")
	default:
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("  %-40s %-8s %-10s %6s", "TITLE", "VERSION", "CATEGORY", "CHUNKS")))
		b.WriteString("\n")
		end := min(v.scrollOffset+v.visibleRows(), len(v.documents))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderRow(i, &v.documents[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.confirming:
		title := v.documents[v.selected].Title
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %q and all its chunks? [y/N]", title)))
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
	default:
		b.WriteString(v.styles.Help.Render("[j/k] Navigate  [d] Delete  [r] Reload  [Esc] Back"))
	}

	return b.String()
}

func (v *View) renderRow(index int, doc *domain.Document) string {
	category := doc.Category
	if category == "" {
		category = "-"
	}
	title := doc.Title
	if r := []rune(title); len(r) > 40 {
		title = string(r[:37]) + "..."
	}
	row := fmt.Sprintf("%-40s %-8s %-10s %6d", title, doc.Version, category, doc.ChunkCount)
	if index == v.selected {
		return "> " + v.styles.Selected.Render(row)
	}
	return "  " + v.styles.Normal.Render(row)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.adjustScroll()
}

// Documents returns the documents currently listed.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Confirming reports whether a delete confirmation is pending.
func (v *View) Confirming() bool {
	return v.confirming
}
