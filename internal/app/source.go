package app

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/connectors"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure lazySource implements the interface.
var _ driven.FileSource = (*lazySource)(nil)

// lazySource builds the configured FileSource on first use, so commands
// that never touch the source run without source credentials.
// A build failure is returned from every call.
type lazySource struct {
	ctx      context.Context
	factory  *connectors.Factory
	settings domain.SourceSettings

	once sync.Once
	src  driven.FileSource
	err  error
}

func newLazySource(ctx context.Context, factory *connectors.Factory, settings domain.SourceSettings) *lazySource {
	return &lazySource{ctx: ctx, factory: factory, settings: settings}
}

func (l *lazySource) get() (driven.FileSource, error) {
	l.once.Do(func() {
		l.src, l.err = l.factory.Create(l.ctx, l.settings)
	})
	return l.src, l.err
}

func (l *lazySource) Type() string {
	return string(l.settings.Type)
}

func (l *lazySource) ListFilesInFolder(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	src, err := l.get()
	if err != nil {
		return nil, err
	}
	return src.ListFilesInFolder(ctx, folderID)
}

func (l *lazySource) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	src, err := l.get()
	if err != nil {
		return nil, err
	}
	return src.DownloadFile(ctx, fileID)
}

func (l *lazySource) ExportDocument(ctx context.Context, fileID, exportMIMEType string) ([]byte, error) {
	src, err := l.get()
	if err != nil {
		return nil, err
	}
	return src.ExportDocument(ctx, fileID, exportMIMEType)
}

func (l *lazySource) IsSupportedFile(mimeType string) bool {
	src, err := l.get()
	if err != nil {
		return false
	}
	return src.IsSupportedFile(mimeType)
}

func (l *lazySource) IsExportable(mimeType string) (string, bool) {
	src, err := l.get()
	if err != nil {
		return "", false
	}
	return src.IsExportable(mimeType)
}

// Close closes the underlying source if it was built.
func (l *lazySource) Close() error {
	l.once.Do(func() {})
	if l.src == nil {
		return nil
	}
	return l.src.Close()
}
