package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
	Long:  `Create, list, show and rename tenants. Every document belongs to exactly one tenant.`,
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantCreate,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE:  runTenantList,
}

var tenantGetCmd = &cobra.Command{
	Use:   "get [tenant-id]",
	Short: "Show a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantGet,
}

var tenantRenameCmd = &cobra.Command{
	Use:   "rename [tenant-id] [name]",
	Short: "Rename a tenant",
	Args:  cobra.ExactArgs(2),
	RunE:  runTenantRename,
}

func init() {
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantGetCmd)
	tenantCmd.AddCommand(tenantRenameCmd)
	rootCmd.AddCommand(tenantCmd)
}

func runTenantCreate(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return errNotConfigured
	}

	tenant, err := tenantService.Create(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	cmd.Printf("Created tenant %s\n", tenant.Name)
	cmd.Printf("  ID: %s\n", tenant.ID)
	return nil
}

func runTenantList(cmd *cobra.Command, _ []string) error {
	if tenantService == nil {
		return errNotConfigured
	}

	tenants, err := tenantService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	if len(tenants) == 0 {
		cmd.Println("No tenants. Create one with 'onboard-rag tenant create <name>'.")
		return nil
	}

	cmd.Println("Tenants:")
	cmd.Println()
	for i := range tenants {
		cmd.Printf("  %s  %s\n", tenants[i].ID, tenants[i].Name)
	}
	cmd.Println()
	cmd.Printf("Total: %d tenants\n", len(tenants))
	return nil
}

func runTenantGet(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return errNotConfigured
	}

	tenant, err := tenantService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}

	cmd.Printf("Tenant: %s\n\n", tenant.ID)
	cmd.Printf("  Name:     %s\n", tenant.Name)
	cmd.Printf("  Created:  %s\n", tenant.CreatedAt.Format("2006-01-02 15:04:05"))

	if retrievalService != nil {
		docs, err := retrievalService.ListDocuments(cmd.Context(), tenant.ID)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		cmd.Printf("  Documents: %d\n", len(docs))
	}
	return nil
}

func runTenantRename(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return errNotConfigured
	}

	tenant, err := tenantService.Rename(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to rename tenant: %w", err)
	}

	cmd.Printf("Renamed tenant %s to %s\n", tenant.ID, tenant.Name)
	return nil
}
