// Package cli provides the cobra command tree for sercha-ingest.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// annotationSkipBootstrap marks commands that run without services.
const annotationSkipBootstrap = "skip-bootstrap"

// annotationSettingsOnly marks commands that only need the settings service.
const annotationSettingsOnly = "settings-only"

var (
	version    = "dev"
	verbose    bool
	configPath string
)

// Services wired by the bootstrap. Tests replace them directly.
var (
	corpusService    driving.CorpusService
	profileService   driving.ProfileService
	syncOrchestrator driving.SyncOrchestrator
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService
	serverSettings   domain.ServerSettings
)

// Services holds the driving ports commands call.
type Services struct {
	Corpus    driving.CorpusService
	Profile   driving.ProfileService
	Sync      driving.SyncOrchestrator
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService
	Server    domain.ServerSettings
}

// BootstrapOptions are derived from global flags.
type BootstrapOptions struct {
	// ConfigDir holds config.toml and .env. Empty means the default.
	ConfigDir string

	// Verbose enables debug logging.
	Verbose bool

	// SettingsOnly skips building stores, sources and providers.
	SettingsOnly bool
}

// BootstrapFunc builds services once flags are parsed. The returned
// cleanup runs after the command finishes, successfully or not.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "sercha-ingest",
	Short: "Incremental document ingestion and retrieval",
	Long: `sercha-ingest pulls files from a source folder, extracts and chunks their
text, embeds the chunks and stores them for similarity search.

Each sync tick processes a bounded batch of files; run it again (or use
--until-done) until the corpus reports completed. Unchanged documents are
skipped without re-embedding.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory (default ~/.sercha-ingest)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap installs the function that wires services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	corpusService = s.Corpus
	profileService = s.Profile
	syncOrchestrator = s.Sync
	retrievalService = s.Retrieval
	settingsService = s.Settings
	serverSettings = s.Server
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer runCleanup()
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationSkipBootstrap] == "true" || bootstrap == nil {
		return nil
	}

	svc, done, err := bootstrap(cmd.Context(), BootstrapOptions{
		ConfigDir:    configPath,
		Verbose:      verbose,
		SettingsOnly: cmd.Annotations[annotationSettingsOnly] == "true",
	})
	if err != nil {
		return err
	}
	SetServices(svc)
	cleanup = done
	return nil
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var errNotConfigured = errors.New("not configured")
