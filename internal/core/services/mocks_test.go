package services

import (
	"context"
	"errors"
	"strings"
	stdsync "sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// --- Mock implementations shared by service tests ---

// mockFileSource implements driven.FileSource over in-memory files.
type mockFileSource struct {
	files      []domain.SourceFile
	content    map[string][]byte
	failures   map[string]error
	listErr    error
	listPanic  bool
	exportable map[string]string

	mu        stdsync.Mutex
	downloads []string
	exports   []string
}

var _ driven.FileSource = (*mockFileSource)(nil)

func newMockFileSource() *mockFileSource {
	return &mockFileSource{
		content:    make(map[string][]byte),
		failures:   make(map[string]error),
		exportable: map[string]string{"application/vnd.google-apps.document": driven.ExportPlainText},
	}
}

// add registers a file with its content.
func (m *mockFileSource) add(id, name, mime, content string) {
	m.files = append(m.files, domain.SourceFile{ID: id, Name: name, MIMEType: mime, Path: "/" + name, Size: int64(len(content))})
	m.content[id] = []byte(content)
}

func (m *mockFileSource) Type() string { return "mock" }

func (m *mockFileSource) ListFilesInFolder(_ context.Context, _ string) ([]domain.SourceFile, error) {
	if m.listPanic {
		panic("listing exploded")
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.SourceFile(nil), m.files...), nil
}

func (m *mockFileSource) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	m.downloads = append(m.downloads, fileID)
	m.mu.Unlock()
	if err := m.failures[fileID]; err != nil {
		return nil, err
	}
	return m.content[fileID], nil
}

func (m *mockFileSource) ExportDocument(_ context.Context, fileID, _ string) ([]byte, error) {
	m.mu.Lock()
	m.exports = append(m.exports, fileID)
	m.mu.Unlock()
	if err := m.failures[fileID]; err != nil {
		return nil, err
	}
	return m.content[fileID], nil
}

func (m *mockFileSource) IsSupportedFile(mimeType string) bool {
	return !strings.HasPrefix(mimeType, "image/")
}

func (m *mockFileSource) IsExportable(mimeType string) (string, bool) {
	export, ok := m.exportable[mimeType]
	return export, ok
}

func (m *mockFileSource) Close() error { return nil }

func (m *mockFileSource) downloaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.downloads...)
}

// mockRegistry treats content as text for a fixed set of MIME types.
type mockRegistry struct {
	mimes map[string]bool
}

var _ driven.NormaliserRegistry = (*mockRegistry)(nil)

func newMockRegistry() *mockRegistry {
	return &mockRegistry{mimes: map[string]bool{
		"text/plain":    true,
		"text/markdown": true,
		"text/csv":      true,
	}}
}

func (r *mockRegistry) Register(driven.Normaliser) {}

func (r *mockRegistry) Get(mimeType string) (driven.Normaliser, error) {
	return nil, domain.ErrUnsupportedType
}

func (r *mockRegistry) Supports(mimeType string) bool { return r.mimes[mimeType] }

func (r *mockRegistry) Normalise(_ context.Context, raw *domain.RawContent) (string, error) {
	if !r.mimes[raw.MIMEType] {
		return "", domain.ErrUnsupportedType
	}
	return strings.TrimSpace(string(raw.Content)), nil
}

func (r *mockRegistry) SupportedMIMETypes() []string {
	out := make([]string, 0, len(r.mimes))
	for m := range r.mimes {
		out = append(out, m)
	}
	return out
}

// mockChunker splits on blank lines unless split is overridden.
type mockChunker struct {
	split  func(text string) []string
	closed bool
}

func (c *mockChunker) Chunk(_ context.Context, text string) ([]domain.ChunkDraft, error) {
	if c.closed {
		return nil, errors.New("chunker closed")
	}
	var parts []string
	if c.split != nil {
		parts = c.split(text)
	} else {
		parts = strings.Split(text, "\n\n")
	}
	drafts := make([]domain.ChunkDraft, len(parts))
	for i, p := range parts {
		drafts[i] = domain.ChunkDraft{Index: i, Content: p, TokenCount: len(strings.Fields(p))}
	}
	return drafts, nil
}

func (c *mockChunker) Close() error {
	c.closed = true
	return nil
}

type mockChunkerFactory struct {
	split   func(text string) []string
	created []*mockChunker
	err     error
}

func (f *mockChunkerFactory) NewChunker() (driven.Chunker, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &mockChunker{split: f.split}
	f.created = append(f.created, c)
	return c, nil
}

// mockEmbedding returns fixed vectors per text, defaulting to a unit vector.
type mockEmbedding struct {
	dims     int
	vectors  map[string][]float32
	err      error
	short    bool
	batches  [][]string
	embedded []string
}

var _ driven.EmbeddingService = (*mockEmbedding)(nil)

func newMockEmbedding() *mockEmbedding {
	return &mockEmbedding{dims: 3, vectors: make(map[string][]float32)}
}

func (m *mockEmbedding) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedded = append(m.embedded, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batches = append(m.batches, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int              { return m.dims }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedding) Close() error                 { return nil }

// mockConfigStore is an in-memory driven.ConfigStore.
type mockConfigStore struct {
	values map[string]any
	saves  int
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (s *mockConfigStore) Get(key string) (any, bool) {
	val, ok := s.values[key]
	return val, ok
}

func (s *mockConfigStore) GetString(key string) string {
	str, _ := s.values[key].(string)
	return str
}

func (s *mockConfigStore) GetInt(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (s *mockConfigStore) GetBool(key string) bool {
	b, _ := s.values[key].(bool)
	return b
}

func (s *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := s.values[key].([]string)
	return v
}

func (s *mockConfigStore) Set(key string, value any) error {
	s.values[key] = value
	return nil
}

func (s *mockConfigStore) Save() error {
	s.saves++
	return nil
}

func (s *mockConfigStore) Load() error  { return nil }
func (s *mockConfigStore) Path() string { return ":memory:" }
