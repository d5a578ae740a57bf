package export

import (
	"context"
	"io"
	"strings"

	"fleetdesk/exporter/pkg/record"
)

// Encoder writes a record set in one format.
type Encoder interface {
	Encode(ctx context.Context, records record.RecordSet, w io.Writer) error
}

// CSVEncoder encodes records as CSV. Columns are the union of all field
// names in first-seen order; absent and null fields are empty cells.
type CSVEncoder struct {
	// UseCRLF terminates lines with \r\n instead of \n.
	UseCRLF bool
}

// NewCSVEncoder creates a new CSV encoder.
func NewCSVEncoder(useCRLF bool) *CSVEncoder {
	return &CSVEncoder{
		UseCRLF: useCRLF,
	}
}

// Encode writes the header line followed by one line per record. Lines are
// joined, not terminated, so the output has no trailing newline. A record set
// without any field names produces no output at all.
func (e *CSVEncoder) Encode(ctx context.Context, records record.RecordSet, w io.Writer) error {
	headers := record.CollectHeaders(records)
	if len(headers) == 0 {
		return nil
	}

	newline := "\n"
	if e.UseCRLF {
		newline = "\r\n"
	}

	var sb strings.Builder
	writeCSVLine(&sb, headers, func(h string) string { return h })
	for _, r := range records {
		sb.WriteString(newline)
		writeCSVLine(&sb, headers, r.Cell)
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return NewExportError(FormatCSV, len(records), err)
	}
	return nil
}

func writeCSVLine(sb *strings.Builder, headers []string, cell func(string) string) {
	for i, h := range headers {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(EscapeCSV(cell(h)))
	}
}

// EscapeCSV quotes s when it contains a comma, a double quote or a line
// break, doubling any embedded quotes. Other values are returned unchanged.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
