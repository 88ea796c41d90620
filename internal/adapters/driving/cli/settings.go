package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in config.toml.

Environment variables override the file: ONBOARD_RAG_<SECTION>_<KEY>
(for example ONBOARD_RAG_EMBEDDING_PROVIDER), ONBOARD_RAG_DSN and OPENAI_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by its dotted key, for example:
  onboard-rag settings set chunking.size 800
  onboard-rag settings set embedding.provider openai
  onboard-rag settings set embedding.api_key      (prompts without echo)

Run 'onboard-rag settings keys' for the full list.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List setting keys",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

func init() {
	settingsSetCmd.Long += "\n\nEmbedding providers: " + providerList()
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  DSN: %s\n", settings.Storage.DSN)
	cmd.Printf("  Timeout: %s\n", settings.Storage.Timeout)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
		if settings.Embedding.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
		}
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", settings.Embedding.Timeout)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g/s\n", settings.Embedding.RequestsPerSecond)
	} else {
		cmd.Printf("  Rate limit: unlimited\n")
	}
	cmd.Printf("  Concurrency: %d\n", settings.Embedding.Concurrency)
	cmd.Println()

	cmd.Println("[Query]")
	cmd.Printf("  Default top-k: %d\n", settings.Query.DefaultTopK)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'onboard-rag settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if key != services.KeyEmbedAPIKey {
			return fmt.Errorf("a value is required for %s", key)
		}
		cmd.Print("API key: ")
		value = readSecret(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if key == services.KeyEmbedAPIKey {
		cmd.Printf("Set %s to %s\n", key, maskAPIKey(value))
	} else {
		cmd.Printf("Set %s to %s\n", key, value)
	}
	if key == services.KeyEmbedDimensions {
		cmd.Println("Note: an existing corpus keeps the dimension it was created with.")
	}
	return nil
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// providerList names the supported embedding providers for help output.
func providerList() string {
	providers := domain.AllEmbeddingProviders()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
