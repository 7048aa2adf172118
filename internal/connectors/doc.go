// Package connectors holds the FileSource implementations and the registry
// that builds one from settings. Each source knows how to list a folder and
// fetch file bytes from a specific store (Google Drive, S3, local disk).
//
// Sources are registered with the Factory at startup.
package connectors
