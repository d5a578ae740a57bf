package export

import (
	"strings"
)

// Format is an export format.
type Format string

const (
	// FormatJSON exports records as a pretty-printed JSON array.
	FormatJSON Format = "json"
	// FormatCSV exports records as comma-separated values.
	FormatCSV Format = "csv"
	// FormatPDF exports records as a PDF table.
	FormatPDF Format = "pdf"
)

// DefaultFileName is the base name used when the caller gives none.
const DefaultFileName = "export"

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatPDF}
}

// ParseFormat matches s case-insensitively against the supported formats.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", &UnsupportedFormatError{Format: s}
	}
}

// Extension returns the file extension appended to artifact names.
// JSON has none: its artifacts keep the caller's name unchanged.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatPDF:
		return ".pdf"
	default:
		return ""
	}
}

// FileName returns the artifact name for base.
func (f Format) FileName(base string) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultFileName
	}
	return base + f.Extension()
}

// MIMEType returns the media type of artifacts in this format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// String returns the format name.
func (f Format) String() string { return string(f) }
