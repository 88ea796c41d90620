package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/tui"
)

var tuiTopK int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI for one tenant's corpus.

Ask questions, browse ranked passages and manage ingested documents.

Controls:
  ↑/k, ↓/j    - Navigate results
  Enter       - Ask / Expand
  n           - New question
  d           - Delete document
  Esc         - Back
  ?           - Toggle help
  q           - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

// runTUIApp runs the program until the user quits.
var runTUIApp = func(app *tui.App) error {
	return app.Run()
}

func init() {
	tuiCmd.Flags().StringVarP(&tenantFlag, "tenant", "t", "", "Tenant ID")
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "Passages per question (default from settings)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if retrievalService == nil || tenantService == nil {
		return errNotConfigured
	}
	tenantID, err := requireTenant(tenantFlag)
	if err != nil {
		return err
	}
	if _, err := tenantService.Get(cmd.Context(), tenantID); err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Retrieval: retrievalService,
		Tenant:    tenantService,
		TenantID:  tenantID,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithTopK(tuiTopK)

	if err := runTUIApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
