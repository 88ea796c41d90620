package cli

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// maxIngestSize caps how much of a file or stdin is read.
const maxIngestSize = 32 << 20

// tenantFlag is shared by every command scoped to a tenant.
var tenantFlag string

var (
	ingestTitle       string
	ingestCategory    string
	ingestVersion     string
	ingestContentType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into a tenant's corpus",
	Long: `Chunks, embeds and stores a document for a tenant.

The file must be text: plain text, Markdown, HTML, JSON, XML, YAML or TOML.
Use "-" to read from stdin (requires --title).

Examples:
  onboard-rag ingest handbook.md --tenant <id>
  onboard-rag ingest policy.txt --tenant <id> --title "Leave Policy" --category hr --version v2
  cat notes.txt | onboard-rag ingest - --tenant <id> --title "Notes"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&tenantFlag, "tenant", "t", "", "tenant ID (required)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "document category")
	ingestCmd.Flags().StringVar(&ingestVersion, "version", "", "document version (default v1)")
	ingestCmd.Flags().StringVar(&ingestContentType, "content-type", "",
		"MIME type of the content (default: from file extension)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNotConfigured
	}
	tenant, err := requireTenant(tenantFlag)
	if err != nil {
		return err
	}

	path := args[0]
	title := ingestTitle
	var content []byte

	if path == "-" {
		if title == "" {
			return fmt.Errorf("--title is required when reading from stdin")
		}
		content, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxIngestSize+1))
	} else {
		if title == "" {
			title = filepath.Base(path)
		}
		content, err = readLimited(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(content) > maxIngestSize {
		return fmt.Errorf("%s exceeds %d bytes", path, maxIngestSize)
	}

	contentType := ingestContentType
	if contentType == "" && path != "-" {
		contentType = contentTypeFor(path)
	}

	res, err := retrievalService.Ingest(cmd.Context(), domain.IngestRequest{
		TenantID:    tenant,
		Title:       title,
		Category:    ingestCategory,
		Version:     ingestVersion,
		Content:     content,
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	cmd.Printf("Ingested %q\n", title)
	cmd.Printf("  Document: %s\n", res.DocumentID)
	cmd.Printf("  Chunks:   %d\n", res.ChunkCount)
	return nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxIngestSize+1))
}

// contentTypeFor guesses a MIME type from the file extension.
// Unknown extensions return "" and are decoded as plain text.
func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".text", "":
		return "text/plain"
	case ".yaml", ".yml":
		return "application/x-yaml"
	case ".toml":
		return "application/toml"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return ""
}
