package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/google"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

type fakeFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// fakeDrive serves files.list, files.get?alt=media and files.export.
type fakeDrive struct {
	// folders maps folder ID to pages of children.
	folders map[string][][]fakeFile
	content map[string]string
	exports map[string]string
	status  int
	reason  string
	lists   int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"fake failure","errors":[{"reason":%q}]}}`,
			f.status, f.reason)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "files":
		f.lists++
		q := r.URL.Query().Get("q")
		folderID := strings.TrimPrefix(q, "'")
		folderID = folderID[:strings.Index(folderID, "'")]
		pages := f.folders[folderID]
		page := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			page = int(tok[len(tok)-1] - '0')
		}
		resp := map[string]any{"files": []fakeFile{}}
		if page < len(pages) {
			resp["files"] = pages[page]
		}
		if page+1 < len(pages) {
			resp["nextPageToken"] = fmt.Sprintf("page%d", page+1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, "/export"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "files/"), "/export")
		body, ok := f.exports[id+"|"+r.URL.Query().Get("mimeType")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))

	case strings.HasPrefix(path, "files/"):
		id := strings.TrimPrefix(path, "files/")
		body, ok := f.content[id]
		if !ok || r.URL.Query().Get("alt") != "media" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))

	default:
		http.NotFound(w, r)
	}
}

func newTestSource(t *testing.T, fake *fakeDrive) *Source {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	limiter := google.NewRateLimiter(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000})
	return New(svc, WithRateLimiter(limiter), WithPageSize(2))
}

func TestSource_ImplementsFileSource(t *testing.T) {
	var _ driven.FileSource = (*Source)(nil)
	assert.Equal(t, "google_drive", New(nil).Type())
}

func TestSource_ListFilesInFolder(t *testing.T) {
	fake := &fakeDrive{
		folders: map[string][][]fakeFile{
			"root": {
				{
					{ID: "f1", Name: "b.txt", MimeType: "text/plain", Size: "12", ModifiedTime: "2024-05-01T10:00:00Z"},
					{ID: "sub", Name: "Sub", MimeType: MimeTypeFolder},
				},
				{
					{ID: "d1", Name: "a doc", MimeType: MimeTypeGoogleDoc, ModifiedTime: "2024-05-02T10:00:00Z"},
				},
			},
			"sub": {
				{
					{ID: "s1", Name: "c.csv", MimeType: "text/csv", Size: "3"},
				},
			},
		},
	}
	src := newTestSource(t, fake)

	files, err := src.ListFilesInFolder(context.Background(), "root")

	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "Sub/c.csv", files[0].Path)
	assert.Equal(t, "a doc", files[1].Path)
	assert.Equal(t, "b.txt", files[2].Path)

	assert.Equal(t, "f1", files[2].ID)
	assert.Equal(t, int64(12), files[2].Size)
	assert.Equal(t, 2024, files[2].ModifiedTime.Year())
	assert.Equal(t, MimeTypeGoogleDoc, files[1].MIMEType)

	// Two pages for root plus one for the subfolder.
	assert.Equal(t, 3, fake.lists)
}

func TestSource_ListFilesInFolder_RequiresFolder(t *testing.T) {
	src := newTestSource(t, &fakeDrive{})

	_, err := src.ListFilesInFolder(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSource_ListFilesInFolder_NotFound(t *testing.T) {
	src := newTestSource(t, &fakeDrive{status: http.StatusNotFound, reason: "notFound"})

	_, err := src.ListFilesInFolder(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, google.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_ListFilesInFolder_RateLimited(t *testing.T) {
	src := newTestSource(t, &fakeDrive{status: http.StatusForbidden, reason: "userRateLimitExceeded"})

	_, err := src.ListFilesInFolder(context.Background(), "root")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, src.limiter.Allow(), "limiter should back off after a rate limit")
}

func TestSource_DownloadFile(t *testing.T) {
	src := newTestSource(t, &fakeDrive{content: map[string]string{"f1": "file body"}})

	data, err := src.DownloadFile(context.Background(), "f1")

	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))
}

func TestSource_ExportDocument(t *testing.T) {
	src := newTestSource(t, &fakeDrive{exports: map[string]string{
		"d1|text/plain": "exported text",
		"s1|text/csv":   "a,b\n1,2",
	}})

	data, err := src.ExportDocument(context.Background(), "d1", driven.ExportPlainText)
	require.NoError(t, err)
	assert.Equal(t, "exported text", string(data))

	data, err = src.ExportDocument(context.Background(), "s1", driven.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))
}

func TestSource_IsExportable(t *testing.T) {
	src := New(nil)

	tests := []struct {
		mime   string
		want   string
		wantOK bool
	}{
		{MimeTypeGoogleDoc, "text/plain", true},
		{MimeTypeGoogleSlides, "text/plain", true},
		{MimeTypeGoogleSheet, "text/csv", true},
		{"application/pdf", "", false},
		{"application/vnd.google-apps.form", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got, ok := src.IsExportable(tt.mime)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_IsSupportedFile(t *testing.T) {
	src := New(nil)

	assert.True(t, src.IsSupportedFile(MimeTypeGoogleDoc))
	assert.True(t, src.IsSupportedFile("application/pdf"))
	assert.True(t, src.IsSupportedFile("text/markdown"))
	assert.False(t, src.IsSupportedFile(MimeTypeFolder))
	assert.False(t, src.IsSupportedFile("application/vnd.google-apps.form"))
	assert.False(t, src.IsSupportedFile("image/png"))
	assert.False(t, src.IsSupportedFile(""))
}

func TestBuild_NoCredentials(t *testing.T) {
	_, err := Build(context.Background(), domain.SourceSettings{Type: domain.SourceGoogleDrive})

	assert.ErrorIs(t, err, google.ErrNoCredentials)
}

func TestBuild_APIKey(t *testing.T) {
	src, err := Build(context.Background(), domain.SourceSettings{
		Type:  domain.SourceGoogleDrive,
		Drive: domain.DriveSettings{APIKey: "key", RequestsPerSecond: 5},
	})

	require.NoError(t, err)
	assert.Equal(t, SourceType, src.Type())
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
}
