package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Export formats requested from sources that store native documents
// (e.g. Google Docs) rather than files.
const (
	ExportPlainText = "text/plain"
	ExportCSV       = "text/csv"
)

// FileSource is an external file store that can list a folder and fetch bytes.
// Each backend (Google Drive, S3, filesystem) implements this interface.
type FileSource interface {
	// Type returns the source type identifier.
	Type() string

	// ListFilesInFolder returns every file directly or transitively under
	// folderID, in a stable order. Pagination is handled internally.
	ListFilesInFolder(ctx context.Context, folderID string) ([]domain.SourceFile, error)

	// DownloadFile returns the raw bytes of a file.
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)

	// ExportDocument converts a native document to exportMIMEType.
	// Only valid when IsExportable reports true for its MIME type.
	ExportDocument(ctx context.Context, fileID, exportMIMEType string) ([]byte, error)

	// IsSupportedFile reports whether the source can deliver content for mimeType.
	IsSupportedFile(mimeType string) bool

	// IsExportable reports whether files of mimeType must be fetched via
	// ExportDocument, and the export format to request.
	IsExportable(mimeType string) (exportMIMEType string, ok bool)

	// Close releases resources.
	Close() error
}
