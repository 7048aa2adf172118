// Package drive provides a FileSource over a Google Drive folder tree.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/google"
	"github.com/custodia-labs/sercha-ingest/internal/connectors/mimetype"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.FileSource = (*Source)(nil)

// SourceType is the registry key for this source.
const SourceType = "google_drive"

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc      = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet    = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides   = "application/vnd.google-apps.presentation"
	MimeTypeFolder         = "application/vnd.google-apps.folder"
	mimeTypeGoogleAppsBase = "application/vnd.google-apps."
)

// Size limits for fetched content.
const (
	MaxExportSize   = 10 * 1024 * 1024
	MaxDownloadSize = 50 * 1024 * 1024
)

// DefaultPageSize is the Drive files.list page size.
const DefaultPageSize = 100

// listFields limits listing responses to what SourceFile needs.
const listFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime)"

// ErrTooLarge indicates content exceeded the download limit.
var ErrTooLarge = errors.New("drive: file exceeds size limit")

// exportFormats maps native documents to the format they are exported as.
var exportFormats = map[string]string{
	MimeTypeGoogleDoc:    driven.ExportPlainText,
	MimeTypeGoogleSlides: driven.ExportPlainText,
	MimeTypeGoogleSheet:  driven.ExportCSV,
}

// Source lists and fetches files from Google Drive.
type Source struct {
	svc      *drive.Service
	limiter  *google.RateLimiter
	pageSize int64
}

// Option configures a Source.
type Option func(*Source)

// WithPageSize sets the files.list page size.
func WithPageSize(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(l *google.RateLimiter) Option {
	return func(s *Source) {
		if l != nil {
			s.limiter = l
		}
	}
}

// New creates a Drive source over an API service.
func New(svc *drive.Service, opts ...Option) *Source {
	s := &Source{
		svc:      svc,
		limiter:  google.NewRateLimiter(google.DefaultDriveRateLimit),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build is the FileSourceBuilder for Google Drive.
func Build(ctx context.Context, settings domain.SourceSettings) (driven.FileSource, error) {
	return BuildWithOptions(ctx, settings)
}

// BuildWithOptions creates a Drive source with extra API client options.
func BuildWithOptions(ctx context.Context, settings domain.SourceSettings, extra ...option.ClientOption) (*Source, error) {
	svc, err := google.NewDriveService(ctx, settings.Drive, extra...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	limiter := google.NewRateLimiter(google.RateLimitConfig{
		RequestsPerSecond: float64(settings.Drive.RequestsPerSecond),
	})
	return New(svc, WithRateLimiter(limiter)), nil
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return SourceType
}

// ListFilesInFolder lists every non-folder file under folderID, descending
// into subfolders. Paths are relative to folderID. Results are ordered by path.
func (s *Source) ListFilesInFolder(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	if folderID == "" {
		return nil, fmt.Errorf("%w: drive folder id is required", domain.ErrInvalidInput)
	}

	var files []domain.SourceFile
	visited := map[string]bool{}
	if err := s.listRecursive(ctx, folderID, "", visited, &files); err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	logger.Debug("Drive folder %s: %d files", folderID, len(files))
	return files, nil
}

func (s *Source) listRecursive(
	ctx context.Context, folderID, prefix string, visited map[string]bool, out *[]domain.SourceFile,
) error {
	// A folder can have several parents; list it once.
	if visited[folderID] {
		return nil
	}
	visited[folderID] = true

	var subfolders []*drive.File
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		call := s.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))).
			Fields(listFields).
			PageSize(s.pageSize).
			OrderBy("name").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return s.wrap(err)
		}

		for _, f := range resp.Files {
			if f.MimeType == MimeTypeFolder {
				subfolders = append(subfolders, f)
				continue
			}
			*out = append(*out, toSourceFile(f, prefix))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	for _, sub := range subfolders {
		if err := s.listRecursive(ctx, sub.Id, prefix+sub.Name+"/", visited, out); err != nil {
			return err
		}
	}
	return nil
}

// DownloadFile fetches the bytes of a stored (non-native) file.
func (s *Source) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, s.wrap(err)
	}
	defer resp.Body.Close()

	return readLimited(resp, MaxDownloadSize)
}

// ExportDocument converts a native Workspace document to exportMIMEType.
func (s *Source) ExportDocument(ctx context.Context, fileID, exportMIMEType string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Files.Export(fileID, exportMIMEType).Context(ctx).Download()
	if err != nil {
		return nil, s.wrap(err)
	}
	defer resp.Body.Close()

	return readLimited(resp, MaxExportSize)
}

// IsSupportedFile accepts exportable Workspace documents and stored files
// that may carry text. Other native types (forms, drawings, shortcuts) are skipped.
func (s *Source) IsSupportedFile(mimeType string) bool {
	if _, ok := exportFormats[mimeType]; ok {
		return true
	}
	if strings.HasPrefix(mimeType, mimeTypeGoogleAppsBase) {
		return false
	}
	return mimetype.IsTextCandidate(mimeType)
}

// IsExportable reports the export format for native Workspace documents.
func (s *Source) IsExportable(mimeType string) (string, bool) {
	format, ok := exportFormats[mimeType]
	return format, ok
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// wrap classifies API errors and backs off after rate limiting.
func (s *Source) wrap(err error) error {
	if google.IsRateLimited(err) {
		s.limiter.RecordRateLimitError(retryAfter(err))
	}
	return google.WrapError(err)
}

func toSourceFile(f *drive.File, prefix string) domain.SourceFile {
	sf := domain.SourceFile{
		ID:       f.Id,
		Name:     f.Name,
		MIMEType: f.MimeType,
		Path:     prefix + f.Name,
		Size:     f.Size,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		sf.ModifiedTime = t.UTC()
	}
	return sf
}

func readLimited(resp *http.Response, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// retryAfter reads the Retry-After header of a googleapi error, if present.
func retryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	v := gerr.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, perr := time.ParseDuration(v + "s"); perr == nil {
		return secs
	}
	return 0
}
