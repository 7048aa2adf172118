// Package mimetype infers content types for sources that do not report them.
package mimetype

import (
	"mime"
	"path"
	"strings"
)

// extensionTypes covers extensions the platform MIME table often lacks or
// reports inconsistently across hosts.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".yaml":     "application/x-yaml",
	".yml":      "application/x-yaml",
	".toml":     "application/toml",
	".json":     "application/json",
	".xml":      "application/xml",
	".html":     "text/html",
	".htm":      "text/html",
	".eml":      "message/rfc822",
	".pdf":      "application/pdf",
	".rtf":      "application/rtf",
	".odt":      "application/vnd.oasis.opendocument.text",
	".doc":      "application/msword",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Detect picks a MIME type from a file name's extension.
// Names without an extension are treated as plain text.
func Detect(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return "application/octet-stream"
}

// IsTextCandidate rejects media families no normaliser can read.
func IsTextCandidate(mimeType string) bool {
	switch {
	case mimeType == "", mimeType == "application/octet-stream":
		return false
	case strings.HasPrefix(mimeType, "image/"),
		strings.HasPrefix(mimeType, "audio/"),
		strings.HasPrefix(mimeType, "video/"),
		strings.HasPrefix(mimeType, "font/"):
		return false
	case mimeType == "application/zip", mimeType == "application/gzip":
		return false
	default:
		return true
	}
}
