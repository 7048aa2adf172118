package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	embeddingProvider string
	embeddingModel    string
	embeddingAPIKey   string
	embeddingSkipPing bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure storage, source, embedding and chunking settings.

Settings live in config.toml inside the config directory. SERCHA_* environment
variables (and a .env file next to config.toml) override file values.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Validate settings and ping the embedding provider",
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsValidate,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for ingestion and retrieval.

Changing the model after ingestion makes stored vectors incomparable with
query vectors; re-sync affected corpora afterwards.

Without --provider the command prompts interactively.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsEmbedding,
}

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&embeddingProvider, "provider", "", "ollama, openai or gemini")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingModel, "model", "", "model name (default per provider)")
	settingsEmbeddingCmd.Flags().StringVar(&embeddingAPIKey, "api-key", "", "API key for hosted providers")
	settingsEmbeddingCmd.Flags().BoolVar(&embeddingSkipPing, "skip-validation", false, "do not ping the provider")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings service %w", errNotConfigured)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", settings.Storage.Driver)
	switch settings.Storage.Driver {
	case domain.StoragePostgres:
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Storage.DSN))
	case domain.StorageSQLite:
		cmd.Printf("  Path: %s\n", valueOr(settings.Storage.Path, "(config directory)"))
	}
	cmd.Printf("  Max rows per insert: %d\n", settings.Storage.MaxRowsPerInsert)
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Type: %s\n", settings.Source.Type.Description())
	switch settings.Source.Type {
	case domain.SourceGoogleDrive:
		drive := settings.Source.Drive
		switch {
		case drive.CredentialsFile != "":
			cmd.Printf("  Credentials: %s\n", drive.CredentialsFile)
		case drive.AccessToken != "":
			cmd.Printf("  Access token: %s\n", maskAPIKey(drive.AccessToken))
		case drive.APIKey != "":
			cmd.Printf("  API Key: %s\n", maskAPIKey(drive.APIKey))
		default:
			cmd.Printf("  Credentials: (not set)\n")
		}
		cmd.Printf("  Requests per second: %d\n", drive.RequestsPerSecond)
	case domain.SourceS3:
		cmd.Printf("  Bucket: %s\n", valueOr(settings.Source.S3.Bucket, "(not set)"))
		cmd.Printf("  Region: %s\n", settings.Source.S3.Region)
		if settings.Source.S3.Endpoint != "" {
			cmd.Printf("  Endpoint: %s\n", settings.Source.S3.Endpoint)
		}
	case domain.SourceFilesystem:
		cmd.Printf("  Root: %s\n", valueOr(settings.Source.Filesystem.Root, "(working directory)"))
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Strategy: %s\n", settings.Chunking.Strategy)
	cmd.Printf("  Tokens: max %d, min %d, overlap %d\n",
		settings.Chunking.MaxTokens, settings.Chunking.MinTokens, settings.Chunking.OverlapTokens)
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Batch size: %d\n", settings.Sync.BatchSize)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-ingest settings embedding' or edit config.toml to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings service %w", errNotConfigured)
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cmd.Print("Validating embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings service %w", errNotConfigured)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	if embeddingProvider == "" {
		return configureEmbeddingProvider(cmd, reader)
	}

	provider := domain.AIProvider(strings.ToLower(embeddingProvider))
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, embeddingProvider)
	}
	model := embeddingModel
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	return applyEmbeddingProvider(cmd, provider, model, embeddingAPIKey)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	return applyEmbeddingProvider(cmd, selectedProvider, model, apiKey)
}

func applyEmbeddingProvider(cmd *cobra.Command, provider domain.AIProvider, model, apiKey string) error {
	if provider.RequiresAPIKey() && apiKey == "" {
		return errors.New("API key is required for this provider")
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	if !embeddingSkipPing {
		cmd.Print("Validating configuration... ")
		if err := settingsService.ValidateEmbeddingConfig(); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:scheme+3] + creds[:colon] + ":****" + dsn[at:]
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
