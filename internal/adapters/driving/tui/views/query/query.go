// Package query provides the question-and-answer view for the TUI.
package query

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
)

// View represents the query view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	tenantID  string
	topK      int
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing, false = navigating results
}

// NewView creates a new query view scoped to one tenant.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retrieval driving.RetrievalService,
	tenantID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		tenantID:   tenantID,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets how many results each query asks for. Zero uses the service default.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QueryCompleted:
		v.handleQueryCompleted(msg)
		return v, nil

	case messages.TenantLoaded:
		if msg.Err == nil && msg.Tenant != nil {
			v.statusbar.SetTenant(msg.Tenant.Name)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		if v.list.Expanded() {
			v.list.ToggleExpanded()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(v.input.Value())
			if q == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateQuerying)
			v.statusbar.SetMessage("")
			v.focusInput = false
			v.input.Blur()
			return v, v.performQuery(q)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Expand):
		v.list.ToggleExpanded()
	case keymap.Matches(key, v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		v.list.SetResults(nil)
		v.statusbar.Clear()
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	}

	return v, nil
}

func (v *View) performQuery(q string) tea.Cmd {
	retrieval, tenantID, topK, ctx := v.retrieval, v.tenantID, v.topK, v.ctx
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}

		res, err := retrieval.Query(ctx, domain.QueryRequest{
			TenantID: tenantID,
			Query:    q,
			TopK:     topK,
		})
		if err != nil {
			return messages.QueryCompleted{Query: q, Err: err}
		}
		return messages.QueryCompleted{Query: q, Results: res.Results}
	}
}

func (v *View) handleQueryCompleted(msg messages.QueryCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		// let the user edit and resubmit
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))
	if len(msg.Results) == 0 {
		v.statusbar.SetMessage("No matching content in this corpus")
	}
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Onboard RAG"), "")
	sections = append(sections, v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and lays out the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	// title, input, status bar and spacing
	v.list.SetDimensions(width, height-8)
}

// InputFocused reports whether keystrokes go to the query input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Results returns the results currently displayed.
func (v *View) Results() []domain.RankedChunk {
	return v.list.Results()
}

// Err returns the last error shown, if any.
func (v *View) Err() error {
	return v.err
}
