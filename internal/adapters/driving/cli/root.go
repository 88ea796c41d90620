// Package cli provides the onboard-rag command line interface built on cobra.
// It is a driving adapter: every command is a thin caller of the driving ports.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/onboard-rag/internal/core/ports/driving"
	"github.com/custodia-labs/onboard-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	configDir string
	dsn       string
	verbose   bool
)

// Services wired by the bootstrap function.
var (
	retrievalService driving.RetrievalService
	tenantService    driving.TenantService
	settingsService  driving.SettingsService
	closeServices    func() error
)

// annotationNoServices marks commands that run without opening the corpus.
const annotationNoServices = "onboard-rag/no-services"

var errNotConfigured = errors.New("services not configured")

// BootstrapOptions carries the global flags to the bootstrap function.
type BootstrapOptions struct {
	ConfigDir string
	DSN       string
	Verbose   bool
}

// Services are the driving ports the commands call.
type Services struct {
	Retrieval driving.RetrievalService
	Tenant    driving.TenantService
	Settings  driving.SettingsService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// BootstrapFunc builds the services once flags are parsed.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, error)

var bootstrap BootstrapFunc

var rootCmd = &cobra.Command{
	Use:   "onboard-rag",
	Short: "Tenant-scoped document retrieval for onboarding assistants",
	Long: `onboard-rag stores each company's onboarding documents as embedded chunks
and answers questions by returning the most similar chunks.

Documents belong to exactly one tenant; queries never see another tenant's content.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepareServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "",
		"configuration directory (default ~/.onboard-rag)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "",
		"corpus store: sqlite file path, postgres:// URL or memory://")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs already-built services. Commands run with these
// instead of calling the bootstrap function.
func SetServices(s *Services) {
	if s == nil {
		retrievalService, tenantService, settingsService, closeServices = nil, nil, nil, nil
		return
	}
	retrievalService = s.Retrieval
	tenantService = s.Tenant
	settingsService = s.Settings
	closeServices = s.Close
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer shutdown()
	return rootCmd.ExecuteContext(ctx)
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	if retrievalService != nil || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(cmd.Context(), BootstrapOptions{
		ConfigDir: configDir,
		DSN:       dsn,
		Verbose:   verbose,
	})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func shutdown() {
	if closeServices == nil {
		return
	}
	if err := closeServices(); err != nil {
		logger.Warn("closing services", "error", err)
	}
	closeServices = nil
}

// requireTenant returns the --tenant flag value or an error naming the flag.
func requireTenant(tenant string) (string, error) {
	if tenant == "" {
		return "", fmt.Errorf("--tenant is required (see 'onboard-rag tenant list')")
	}
	return tenant, nil
}
