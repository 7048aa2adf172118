package domain

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// StorageDriver selects the corpus store implementation.
type StorageDriver string

// Available storage drivers.
const (
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d StorageDriver) String() string {
	return string(d)
}

// SourceType selects the file source implementation.
type SourceType string

// Available file sources.
const (
	SourceGoogleDrive SourceType = "google_drive"
	SourceS3          SourceType = "s3"
	SourceFilesystem  SourceType = "filesystem"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceGoogleDrive, SourceS3, SourceFilesystem:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

// Description returns a human-readable description of the source.
func (s SourceType) Description() string {
	switch s {
	case SourceGoogleDrive:
		return "Google Drive"
	case SourceS3:
		return "Amazon S3"
	case SourceFilesystem:
		return "Local Filesystem"
	default:
		return unknownDescription
	}
}

// StorageSettings configures the corpus store.
type StorageSettings struct {
	// Driver selects the backend.
	Driver StorageDriver

	// Path is the SQLite data directory (sqlite driver).
	Path string

	// DSN is the connection string (postgres driver).
	DSN string

	// MaxRowsPerInsert bounds one chunk insert statement.
	MaxRowsPerInsert int
}

// DriveSettings configures the Google Drive source.
type DriveSettings struct {
	// CredentialsFile is a service account JSON key.
	CredentialsFile string

	// AccessToken is a pre-issued OAuth access token.
	AccessToken string

	// APIKey is used when no other credential is set (public folders only).
	APIKey string

	// RequestsPerSecond bounds Drive API calls.
	RequestsPerSecond int
}

// S3Settings configures the S3 source. The folder ID is a key prefix.
type S3Settings struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// FilesystemSettings configures the local filesystem source.
type FilesystemSettings struct {
	// Root is prepended to relative folder IDs.
	Root string
}

// SourceSettings holds file source configuration.
type SourceSettings struct {
	Type       SourceType
	Drive      DriveSettings
	S3         S3Settings
	Filesystem FilesystemSettings
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI and Gemini).
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int

	// BatchSize is the maximum texts per provider request.
	BatchSize int

	// RequestsPerMinute bounds provider calls. Zero disables limiting.
	RequestsPerMinute int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// DefaultChunkingStrategy is the recursive separator chunker.
const DefaultChunkingStrategy = "recursive"

// ChunkingSettings holds chunker bounds in tokenizer units.
type ChunkingSettings struct {
	// Strategy names a registered chunker builder.
	Strategy string

	MaxTokens     int
	MinTokens     int
	OverlapTokens int
}

// SyncSettings holds orchestrator configuration.
type SyncSettings struct {
	// BatchSize is the number of files downloaded per tick.
	BatchSize int
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr           string
	AllowedOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Source    SourceSettings
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Sync      SyncSettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider defaults to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Driver:           StorageSQLite,
			MaxRowsPerInsert: 100,
		},
		Source: SourceSettings{
			Type: SourceFilesystem,
			Drive: DriveSettings{
				RequestsPerSecond: 10,
			},
			S3: S3Settings{
				Region: "us-east-1",
			},
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             "nomic-embed-text",
			BaseURL:           "http://localhost:11434",
			Dimensions:        768,
			BatchSize:         64,
			RequestsPerMinute: 0,
		},
		Chunking: ChunkingSettings{
			Strategy:      DefaultChunkingStrategy,
			MaxTokens:     512,
			MinTokens:     32,
			OverlapTokens: 64,
		},
		Sync: SyncSettings{
			BatchSize: 3,
		},
		Server: ServerSettings{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}
