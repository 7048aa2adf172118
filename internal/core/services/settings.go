package services

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageDriver  = "storage.driver"
	keyStoragePath    = "storage.path"
	keyStorageDSN     = "storage.dsn"
	keyStorageMaxRows = "storage.max_rows_per_insert"
	keySourceType     = "source.type"
	keyDriveCreds     = "source.drive.credentials_file"
	keyDriveAPIKey    = "source.drive.api_key"
	keyDriveToken     = "source.drive.access_token"
	keyDriveRPS       = "source.drive.requests_per_second"
	keyS3Bucket       = "source.s3.bucket"
	keyS3Region       = "source.s3.region"
	keyS3Endpoint     = "source.s3.endpoint"
	keyS3AccessKey    = "source.s3.access_key_id"
	keyS3SecretKey    = "source.s3.secret_access_key"
	keyFSRoot         = "source.filesystem.root"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedBatchSize = "embedding.batch_size"
	keyEmbedRPM       = "embedding.requests_per_minute"
	keyChunkStrategy  = "chunking.strategy"
	keyChunkMaxTokens = "chunking.max_tokens"
	keyChunkMinTokens = "chunking.min_tokens"
	keyChunkOverlap   = "chunking.overlap_tokens"
	keySyncBatchSize  = "sync.batch_size"
	keyServerAddr     = "server.addr"
	keyServerOrigins  = "server.allowed_origins"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, "")
	if model == "" {
		model = defaultModelFor(provider, defaults.Embedding.Model)
	}
	baseURL := s.configStore.GetString(keyEmbedBaseURL)
	if baseURL == "" && provider.IsLocal() {
		baseURL = defaults.Embedding.BaseURL
	}

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Driver:           s.getStorageDriver(defaults.Storage.Driver),
			Path:             s.configStore.GetString(keyStoragePath),
			DSN:              s.configStore.GetString(keyStorageDSN),
			MaxRowsPerInsert: s.getInt(keyStorageMaxRows, defaults.Storage.MaxRowsPerInsert),
		},
		Source: domain.SourceSettings{
			Type: s.getSourceType(defaults.Source.Type),
			Drive: domain.DriveSettings{
				CredentialsFile:   s.configStore.GetString(keyDriveCreds),
				AccessToken:       s.configStore.GetString(keyDriveToken),
				APIKey:            s.configStore.GetString(keyDriveAPIKey),
				RequestsPerSecond: s.getInt(keyDriveRPS, defaults.Source.Drive.RequestsPerSecond),
			},
			S3: domain.S3Settings{
				Bucket:          s.configStore.GetString(keyS3Bucket),
				Region:          s.getString(keyS3Region, defaults.Source.S3.Region),
				Endpoint:        s.configStore.GetString(keyS3Endpoint),
				AccessKeyID:     s.configStore.GetString(keyS3AccessKey),
				SecretAccessKey: s.configStore.GetString(keyS3SecretKey),
			},
			Filesystem: domain.FilesystemSettings{
				Root: s.configStore.GetString(keyFSRoot),
			},
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           baseURL,
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, dimensionsFor(model, defaults.Embedding.Dimensions)),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RequestsPerMinute: s.getInt(keyEmbedRPM, defaults.Embedding.RequestsPerMinute),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:      s.getString(keyChunkStrategy, defaults.Chunking.Strategy),
			MaxTokens:     s.getInt(keyChunkMaxTokens, defaults.Chunking.MaxTokens),
			MinTokens:     s.getInt(keyChunkMinTokens, defaults.Chunking.MinTokens),
			OverlapTokens: s.getInt(keyChunkOverlap, defaults.Chunking.OverlapTokens),
		},
		Sync: domain.SyncSettings{
			BatchSize: s.getInt(keySyncBatchSize, defaults.Sync.BatchSize),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, defaults.Server.Addr),
			AllowedOrigins: s.getStringSlice(keyServerOrigins, defaults.Server.AllowedOrigins),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStorageDriver, settings.Storage.Driver.String()},
		{keyStoragePath, settings.Storage.Path},
		{keyStorageMaxRows, settings.Storage.MaxRowsPerInsert},
		{keySourceType, settings.Source.Type.String()},
		{keyDriveCreds, settings.Source.Drive.CredentialsFile},
		{keyDriveRPS, settings.Source.Drive.RequestsPerSecond},
		{keyS3Bucket, settings.Source.S3.Bucket},
		{keyS3Region, settings.Source.S3.Region},
		{keyS3Endpoint, settings.Source.S3.Endpoint},
		{keyFSRoot, settings.Source.Filesystem.Root},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPM, settings.Embedding.RequestsPerMinute},
		{keyChunkStrategy, settings.Chunking.Strategy},
		{keyChunkMaxTokens, settings.Chunking.MaxTokens},
		{keyChunkMinTokens, settings.Chunking.MinTokens},
		{keyChunkOverlap, settings.Chunking.OverlapTokens},
		{keySyncBatchSize, settings.Sync.BatchSize},
		{keyServerAddr, settings.Server.Addr},
		{keyServerOrigins, settings.Server.AllowedOrigins},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so env-provided values stay out of the file.
	secrets := []struct {
		key   string
		value string
	}{
		{keyStorageDSN, settings.Storage.DSN},
		{keyDriveAPIKey, settings.Source.Drive.APIKey},
		{keyDriveToken, settings.Source.Drive.AccessToken},
		{keyS3AccessKey, settings.Source.S3.AccessKeyID},
		{keyS3SecretKey, settings.Source.S3.SecretAccessKey},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = defaultModelFor(provider, "")
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Keep the vector column size in step with the model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// Validate checks the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings for values no adapter can serve.
func ValidateSettings(settings *domain.AppSettings) error {
	if !settings.Storage.Driver.IsValid() {
		return fmt.Errorf("%w: storage driver %q", domain.ErrUnsupportedType, settings.Storage.Driver)
	}
	if settings.Storage.Driver == domain.StoragePostgres && settings.Storage.DSN == "" {
		return fmt.Errorf("%w: postgres storage requires storage.dsn", domain.ErrInvalidInput)
	}
	if !settings.Source.Type.IsValid() {
		return fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, settings.Source.Type)
	}
	if settings.Source.Type == domain.SourceS3 && settings.Source.S3.Bucket == "" {
		return fmt.Errorf("%w: s3 source requires source.s3.bucket", domain.ErrInvalidInput)
	}
	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: API key required for %s", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}

	c := settings.Chunking
	if c.MaxTokens <= 0 || c.MinTokens < 0 || c.MinTokens > c.MaxTokens {
		return fmt.Errorf("%w: chunking bounds min=%d max=%d", domain.ErrInvalidInput, c.MinTokens, c.MaxTokens)
	}
	if c.OverlapTokens < 0 || c.OverlapTokens*2 >= c.MaxTokens {
		return fmt.Errorf("%w: chunk overlap %d must be under half of %d", domain.ErrInvalidInput, c.OverlapTokens, c.MaxTokens)
	}
	if settings.Sync.BatchSize <= 0 {
		return fmt.Errorf("%w: sync batch size must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

// Unknown drivers and source types are kept so Validate can reject them.
func (s *SettingsService) getStorageDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	val := s.configStore.GetString(keyStorageDriver)
	if val == "" {
		return defaultVal
	}
	return domain.StorageDriver(val)
}

func (s *SettingsService) getSourceType(defaultVal domain.SourceType) domain.SourceType {
	val := s.configStore.GetString(keySourceType)
	if val == "" {
		return defaultVal
	}
	return domain.SourceType(val)
}

func defaultModelFor(provider domain.AIProvider, fallback string) string {
	if m, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		return m
	}
	return fallback
}

func dimensionsFor(model string, fallback int) int {
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return fallback
}
