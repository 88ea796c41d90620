package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest
into and query tenant corpora.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Tools:     ingest_document, query_corpus, create_tenant, list_tenants
Resources: onboard-rag://tenants
           onboard-rag://tenants/{tenantId}/documents
           onboard-rag://documents/{documentId}

Examples:
  # Stdio mode (for desktop assistants)
  onboard-rag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  onboard-rag mcp serve --port 8080`,
	RunE: runMCPServe,
}

// serveMCP starts the server on stdio when port is zero, otherwise on HTTP.
var serveMCP = func(ctx context.Context, server *mcp.Server, port int) error {
	if port > 0 {
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", port))
	}
	return server.Run(ctx)
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil || tenantService == nil {
		return errNotConfigured
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Tenant:    tenantService,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost:%d\n", mcpPort)
	}
	return serveMCP(cmd.Context(), server, mcpPort)
}
