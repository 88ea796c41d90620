package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, show or delete a tenant's documents. Documents are immutable; to update one, delete it and ingest again.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().StringVarP(&tenantFlag, "tenant", "t", "", "tenant ID (required)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errNotConfigured
	}
	tenant, err := requireTenant(tenantFlag)
	if err != nil {
		return err
	}

	docs, err := retrievalService.ListDocuments(cmd.Context(), tenant)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for tenant: %s\n", tenant)
		return nil
	}

	cmd.Printf("Documents for tenant %s:\n\n", tenant)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:   %s (%s)\n", docs[i].Title, docs[i].Version)
		if docs[i].Category != "" {
			cmd.Printf("    Category: %s\n", docs[i].Category)
		}
		cmd.Printf("    Chunks:  %d\n", docs[i].ChunkCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNotConfigured
	}

	doc, err := retrievalService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Tenant:   %s\n", doc.TenantID)
	cmd.Printf("  Category: %s\n", doc.Category)
	cmd.Printf("  Version:  %s\n", doc.Version)
	cmd.Printf("  Status:   %s\n", doc.Status)
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNotConfigured
	}

	if err := retrievalService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
