// Package domain contains the export formats and service contract.
package domain

import (
	"context"
	"errors"
	"strings"
)

// Format is a supported export file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var ErrUnsupportedFormat = errors.New("unsupported_export_format")

// ParseFormat validates a format string from the URL path.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType returns the MIME type for download responses.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Document is a rendered export ready to stream to the client.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Service renders proposals into downloadable documents. Each successful
// export is recorded in the usage ledger and on the proposal itself.
type Service interface {
	Export(ctx context.Context, userID, proposalID string, format Format) (*Document, error)
}
