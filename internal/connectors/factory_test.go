package connectors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func TestNewDefaultFactory_SupportedTypes(t *testing.T) {
	f := NewDefaultFactory()

	assert.Equal(t, []domain.SourceType{
		domain.SourceFilesystem,
		domain.SourceGoogleDrive,
		domain.SourceS3,
	}, f.SupportedTypes())
}

func TestFactory_CreateFilesystem(t *testing.T) {
	f := NewDefaultFactory()

	src, err := f.Create(context.Background(), domain.SourceSettings{
		Type:       domain.SourceFilesystem,
		Filesystem: domain.FilesystemSettings{Root: t.TempDir()},
	})

	require.NoError(t, err)
	assert.Equal(t, filesystem.SourceType, src.Type())
}

func TestFactory_CreateUnknown(t *testing.T) {
	f := NewFactory()

	_, err := f.Create(context.Background(), domain.SourceSettings{Type: "dropbox"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFactory_BuilderError(t *testing.T) {
	f := NewFactory()
	boom := errors.New("boom")
	f.Register("custom", func(context.Context, domain.SourceSettings) (driven.FileSource, error) {
		return nil, boom
	})

	_, err := f.Create(context.Background(), domain.SourceSettings{Type: "custom"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "create custom source")
}

func TestFactory_RegisterReplaces(t *testing.T) {
	f := NewFactory()
	calls := 0
	builder := func(context.Context, domain.SourceSettings) (driven.FileSource, error) {
		calls++
		return filesystem.New(""), nil
	}
	f.Register(domain.SourceFilesystem, filesystem.Build)
	f.Register(domain.SourceFilesystem, builder)

	_, err := f.Create(context.Background(), domain.SourceSettings{Type: domain.SourceFilesystem})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, f.SupportedTypes(), 1)
}
