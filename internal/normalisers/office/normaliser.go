package office

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"code.sajari.com/docconv"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Supported MIME types.
const (
	MIMETypePDF = "application/pdf"
	MIMETypeRTF = "application/rtf"
	MIMETypeODT = "application/vnd.oasis.opendocument.text"
	MIMETypeDOC = "application/msword"
)

// ConvertFunc extracts text from r given its MIME type.
type ConvertFunc func(r io.Reader, mimeType string) (string, error)

// Normaliser extracts text from binary office formats using docconv.
// PDF conversion shells out to pdftotext (poppler-utils), DOC to wv and
// RTF to unrtf, so those tools must be installed on the host.
type Normaliser struct {
	convert ConvertFunc
}

// New creates a normaliser backed by docconv.
func New() *Normaliser {
	return &Normaliser{convert: docconvConvert}
}

// NewWithConverter creates a normaliser with a custom conversion function.
func NewWithConverter(convert ConvertFunc) *Normaliser {
	return &Normaliser{convert: convert}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		MIMETypePDF,
		MIMETypeRTF,
		"text/rtf",
		MIMETypeODT,
		MIMETypeDOC,
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts the raw bytes to text.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawContent) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if len(raw.Content) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := n.convert(bytes.NewReader(raw.Content), raw.MIMEType)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", raw.MIMEType, err)
	}
	return text, nil
}

func docconvConvert(r io.Reader, mimeType string) (string, error) {
	if mimeType == "text/rtf" {
		mimeType = MIMETypeRTF
	}
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}
