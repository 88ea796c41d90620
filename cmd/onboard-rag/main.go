// Command onboard-rag ingests onboarding documents into per-tenant corpora
// and answers questions with the most relevant passages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/onboard-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/onboard-rag/internal/container"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, opts cli.BootstrapOptions) (*cli.Services, error) {
	c, err := container.New(ctx, container.Options{
		ConfigDir: opts.ConfigDir,
		DSN:       opts.DSN,
		Verbose:   opts.Verbose,
	})
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Retrieval: c.RetrievalService,
		Tenant:    c.TenantService,
		Settings:  c.SettingsService,
		Close:     c.Close,
	}, nil
}
