package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest files dropped into a directory",
	Long: `Watch a directory and ingest every text or markdown file written to it
into the tenant's corpus. Each file becomes one document titled with its
file name. Hidden files and editor backups are ignored.

Runs until interrupted.

Example:
  onboard-rag watch ./inbox --tenant 3f1c7e0a-...`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&tenantFlag, "tenant", "t", "", "Tenant ID")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0,
		fmt.Sprintf("Quiet period before a changed file is ingested (default %s)", watcher.DefaultDebounce))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil || tenantService == nil {
		return errNotConfigured
	}
	tenantID, err := requireTenant(tenantFlag)
	if err != nil {
		return err
	}
	tenant, err := tenantService.Get(cmd.Context(), tenantID)
	if err != nil {
		return err
	}

	opts := []watcher.Option{
		watcher.WithResultHandler(func(r watcher.Result) {
			if r.Err != nil {
				cmd.PrintErrf("failed %s: %v\n", r.Path, r.Err)
				return
			}
			cmd.Printf("ingested %s -> %s (%d chunks)\n", r.Path, r.DocumentID, r.ChunkCount)
		}),
	}
	if watchDebounce > 0 {
		opts = append(opts, watcher.WithDebounce(watchDebounce))
	}

	w, err := watcher.New(args[0], tenant.ID, retrievalService, opts...)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for %s (Ctrl+C to stop)\n", args[0], tenant.Name)
	return w.Run(cmd.Context())
}
