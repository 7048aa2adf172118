// Package filesystem provides a FileSource over a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/mimetype"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.FileSource = (*Source)(nil)

// SourceType is the registry key for this source.
const SourceType = "filesystem"

// ErrOutsideRoot indicates a folder or file ID that resolves outside the root.
var ErrOutsideRoot = errors.New("filesystem: path escapes root")

// Source lists and reads files under a root directory.
// Folder and file IDs are slash-separated paths relative to the root.
type Source struct {
	root string
}

// New creates a filesystem source rooted at root.
// An empty root means the current working directory.
func New(root string) *Source {
	if root == "" {
		root = "."
	}
	return &Source{root: filepath.Clean(root)}
}

// Build is the FileSourceBuilder for the filesystem source.
func Build(_ context.Context, settings domain.SourceSettings) (driven.FileSource, error) {
	return New(settings.Filesystem.Root), nil
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return SourceType
}

// ListFilesInFolder walks folderID recursively. Hidden files and
// directories are skipped. Results are ordered by path.
func (s *Source) ListFilesInFolder(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	dir, err := s.resolve(folderID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", folderID)
	}

	var files []domain.SourceFile
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if p != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		display, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		files = append(files, domain.SourceFile{
			ID:           filepath.ToSlash(rel),
			Name:         d.Name(),
			MIMEType:     mimetype.Detect(d.Name()),
			Path:         filepath.ToSlash(display),
			Size:         fi.Size(),
			ModifiedTime: fi.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", folderID, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// DownloadFile reads a file by its root-relative ID.
func (s *Source) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(fileID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// ExportDocument is not supported; local files have no native formats.
func (s *Source) ExportDocument(_ context.Context, fileID, _ string) ([]byte, error) {
	return nil, fmt.Errorf("%w: filesystem cannot export %s", domain.ErrUnsupportedType, fileID)
}

// IsSupportedFile reports whether the MIME type may carry text.
func (s *Source) IsSupportedFile(mimeType string) bool {
	return mimetype.IsTextCandidate(mimeType)
}

// IsExportable always reports false.
func (s *Source) IsExportable(string) (string, bool) {
	return "", false
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// resolve maps a slash-separated ID onto the root and rejects ".." segments.
func (s *Source) resolve(id string) (string, error) {
	slashed := filepath.ToSlash(id)
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", ErrOutsideRoot
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+slashed))), nil
}

// isHidden reports whether a file or directory name starts with a dot.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}
