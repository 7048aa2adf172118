package domain

import "time"

// SourceFile is one entry returned by a folder listing.
type SourceFile struct {
	// ID is the identifier within the external file store.
	ID string

	// Name is the display file name.
	Name string

	// MIMEType is the content type reported by the store.
	MIMEType string

	// Path is the display path within the listed folder.
	Path string

	// Size is the file size in bytes, 0 when unknown (e.g. native docs).
	Size int64

	// ModifiedTime is the last modification time reported by the store.
	ModifiedTime time.Time
}

// RawContent is opaque bytes fetched from a file source.
// It is the input to normalisation.
type RawContent struct {
	// FileID links back to the SourceFile.
	FileID string

	// Name is the file name, used for extension sniffing.
	Name string

	// MIMEType is the content type of Content. For exported documents this
	// is the export format, not the original type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
