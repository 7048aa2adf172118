// Package app wires settings, adapters and services into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ingest/internal/connectors"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/services"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors"
)

// DefaultConfigDirName is the config directory created under the user's home.
const DefaultConfigDirName = ".sercha-ingest"

// App holds the wired adapters and services.
type App struct {
	Settings  *domain.AppSettings
	Store     driven.Store
	Source    driven.FileSource
	Embedding driven.EmbeddingService

	SettingsService  *services.SettingsService
	CorpusService    *services.CorpusService
	ProfileService   *services.ProfileService
	SyncOrchestrator *services.SyncOrchestrator
	RetrievalService *services.RetrievalService
}

// Options control how New builds an App.
type Options struct {
	// ConfigDir holds config.toml, .env and the default SQLite data directory.
	// Empty selects ~/.sercha-ingest.
	ConfigDir string

	// SettingsOnly stops after loading settings. No store, source or
	// embedding provider is opened.
	SettingsOnly bool

	// Sources overrides the connector factory.
	Sources *connectors.Factory
}

// New loads settings from the config directory and builds every adapter they select.
func New(ctx context.Context, opts Options) (*App, error) {
	configDir, err := ResolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	a := &App{Settings: settings, SettingsService: settingsService}
	if opts.SettingsOnly {
		return a, nil
	}

	if err := services.ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	if a.Store, err = OpenStore(ctx, settings.Storage, configDir); err != nil {
		return nil, err
	}
	logger.Debug("Store: %s", settings.Storage.Driver)

	sources := opts.Sources
	if sources == nil {
		sources = connectors.NewDefaultFactory()
	}
	a.Source = newLazySource(ctx, sources, settings.Source)

	chunkers, err := postprocessors.NewDefaultRegistry().Build(settings.Chunking)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build chunker: %w", err)
	}

	// The provider is not pinged here; `settings validate` does that.
	a.Embedding, err = ai.CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create embedding service: %w", err)
	}

	batcher := services.NewEmbeddingBatcher(a.Embedding,
		services.WithEmbeddingBatchSize(settings.Embedding.BatchSize),
		services.WithRequestsPerMinute(settings.Embedding.RequestsPerMinute),
	)

	a.CorpusService = services.NewCorpusService(a.Store)
	a.ProfileService = services.NewProfileService(a.Store)
	a.SyncOrchestrator = services.NewSyncOrchestrator(
		a.Store,
		a.Source,
		normalisers.NewDefaultRegistry(),
		chunkers,
		batcher,
		services.WithDefaultBatchSize(settings.Sync.BatchSize),
	)
	a.RetrievalService = services.NewRetrievalService(a.Embedding, a.Store, a.Store)

	return a, nil
}

// Close releases the store, source and embedding provider.
func (a *App) Close() error {
	var errs []error
	if a.Embedding != nil {
		errs = append(errs, a.Embedding.Close())
	}
	if a.Source != nil {
		errs = append(errs, a.Source.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// Bootstrap builds an App for a CLI command and exposes its services.
func Bootstrap(ctx context.Context, opts cli.BootstrapOptions) (*cli.Services, func(), error) {
	a, err := New(ctx, Options{ConfigDir: opts.ConfigDir, SettingsOnly: opts.SettingsOnly})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}

	svc := &cli.Services{
		Settings: a.SettingsService,
		Server:   a.Settings.Server,
	}
	if !opts.SettingsOnly {
		svc.Corpus = a.CorpusService
		svc.Profile = a.ProfileService
		svc.Sync = a.SyncOrchestrator
		svc.Retrieval = a.RetrievalService
	}
	return svc, cleanup, nil
}

// ResolveConfigDir returns dir, or ~/.sercha-ingest when dir is empty.
func ResolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDirName), nil
}

// OpenStore opens the store selected by settings. SQLite data defaults to
// the data directory under configDir.
func OpenStore(ctx context.Context, settings domain.StorageSettings, configDir string) (driven.Store, error) {
	switch settings.Driver {
	case domain.StorageMemory:
		return memory.NewStore(memory.WithMaxRowsPerInsert(settings.MaxRowsPerInsert)), nil

	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, settings.DSN, postgres.WithMaxRowsPerInsert(settings.MaxRowsPerInsert))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil

	case domain.StorageSQLite, "":
		dataDir := settings.Path
		if dataDir == "" {
			dataDir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dataDir, sqlite.WithMaxRowsPerInsert(settings.MaxRowsPerInsert))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: storage driver %q", domain.ErrUnsupportedType, settings.Driver)
	}
}
