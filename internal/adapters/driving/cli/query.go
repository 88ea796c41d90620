package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Find the chunks of a tenant's corpus most similar to a question",
	Long: `Embeds the question and ranks every chunk of the tenant's corpus by cosine
similarity. Results never include another tenant's documents.

An empty corpus returns no results rather than an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&tenantFlag, "tenant", "t", "", "tenant ID (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0,
		fmt.Sprintf("number of results, 1-%d (default from query.default_top_k)", domain.MaxTopK))
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNotConfigured
	}
	tenant, err := requireTenant(tenantFlag)
	if err != nil {
		return err
	}

	res, err := retrievalService.Query(cmd.Context(), domain.QueryRequest{
		TenantID: tenant,
		Query:    strings.Join(args, " "),
		TopK:     queryTopK,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, res)
	}
	if isTerminal(cmd.OutOrStdout()) {
		outputQueryTable(cmd, res)
		return nil
	}
	outputQueryPlain(cmd, res)
	return nil
}

func outputQueryJSON(cmd *cobra.Command, res *domain.QueryResult) error {
	if res.Results == nil {
		res.Results = []domain.RankedChunk{}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, res *domain.QueryResult) {
	if len(res.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	width := 80
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range res.Results {
		cmd.Printf("  [%d] %s (%s) - %s  %.3f\n", i+1, r.DocumentTitle, r.DocumentVersion, r.Section, r.Score)
		cmd.Printf("      %s\n", truncate(oneLine(r.Content), width-8))
		cmd.Println()
	}
}

// outputQueryPlain writes one tab-separated line per result for scripts.
func outputQueryPlain(cmd *cobra.Command, res *domain.QueryResult) {
	for _, r := range res.Results {
		cmd.Printf("%.4f\t%s\t%s\t%s\t%s\t%s\n",
			r.Score, r.DocumentID, r.ChunkID, r.DocumentTitle, r.Section, oneLine(r.Content))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
