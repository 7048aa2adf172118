// Package normalisers turns raw file bytes into clean text.
//
// Each sub-package implements driven.Normaliser for a family of formats:
//
//   - plaintext: text/*, JSON, XML, CSV (fallback)
//   - markdown: markdown syntax stripped
//   - html: tags, scripts and styles stripped
//   - docx: Office Open XML word documents
//   - eml: saved email messages
//   - office: PDF, RTF, ODT and DOC through docconv
//
// The Registry selects a normaliser by MIME type and passes its output
// through Clean so that identical content always yields identical bytes.
package normalisers
