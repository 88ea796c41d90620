// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// QueryCompleted carries query results back to the model.
type QueryCompleted struct {
	Query   string
	Results []domain.RankedChunk
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewQuery is the query input and results view.
	ViewQuery
	// ViewDocuments lists the tenant's documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewQuery:
		return "query"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// TenantLoaded carries the tenant the session is scoped to.
type TenantLoaded struct {
	Tenant *domain.Tenant
	Err    error
}

// DocumentsLoaded carries the tenant's documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentDeleted signals a document was removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}
