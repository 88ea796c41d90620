package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui/views/query"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView      *menu.View
	queryView     *query.View
	documentsView *documents.View

	currentView messages.ViewType
	tenantName  string

	// err holds the last error that occurred.
	err error

	// fatal ends the session and is returned from Run.
	fatal error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		menuView:      menu.NewView(s),
		queryView:     query.NewView(s, km, ports.Retrieval, ports.TenantID),
		documentsView: documents.NewView(s, km, ports.Retrieval, ports.TenantID),
		currentView:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.queryView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	return a
}

// WithTopK sets how many results the query view asks for.
func (a *App) WithTopK(k int) *App {
	a.queryView.WithTopK(k)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("onboard-rag"),
		a.loadTenant(),
	)
}

func (a *App) loadTenant() tea.Cmd {
	svc, id, ctx := a.ports.Tenant, a.ports.TenantID, a.ctx
	return func() tea.Msg {
		tenant, err := svc.Get(ctx, id)
		return messages.TenantLoaded{Tenant: tenant, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewQuery:
			a.queryView, cmd = a.queryView.Update(msg)
			a.err = a.queryView.Err()
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "q" {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.TenantLoaded:
		if msg.Err != nil {
			// an unknown tenant leaves nothing to query
			a.err = msg.Err
			a.fatal = fmt.Errorf("loading tenant: %w", msg.Err)
			return a, tea.Quit
		}
		a.tenantName = msg.Tenant.Name
		a.menuView, _ = a.menuView.Update(msg)
		a.queryView, _ = a.queryView.Update(msg)
		return a, nil

	case messages.QueryCompleted:
		a.queryView, cmd = a.queryView.Update(msg)
		a.err = a.queryView.Err()
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewQuery:
			return a, a.queryView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Load()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewQuery:
			a.queryView, cmd = a.queryView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// cursor blink and similar ticks
	if a.currentView == messages.ViewQuery {
		a.queryView, cmd = a.queryView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewQuery:
		return a.queryView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask:
  (type)      Enter a question
  enter       Run the query
  n           New query
  j/k, ↑/↓    Navigate results
  enter       Show full chunk text

Documents:
  d           Delete (asks for confirmation)
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return a.fatal
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// TenantName returns the resolved tenant name, empty until loaded.
func (a *App) TenantName() string {
	return a.tenantName
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.queryView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
}
