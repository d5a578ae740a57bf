package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/record"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatTable is an aligned text table (default).
	FormatTable OutputFormat = "table"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// OutputFormats lists the accepted output formats.
func OutputFormats() []OutputFormat {
	return []OutputFormat{FormatTable, FormatJSON, FormatCSV}
}

// Formatter writes tabular command results.
type Formatter interface {
	FormatTo(w io.Writer, rs record.RecordSet) error
}

// TableFormatter prints records as space-aligned columns.
type TableFormatter struct{}

// FormatTo writes rs to w as a table. Empty results print nothing.
func (f *TableFormatter) FormatTo(w io.Writer, rs record.RecordSet) error {
	headers := record.CollectHeaders(rs)
	if len(headers) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))

	cells := make([]string, len(headers))
	for _, r := range rs {
		for i, h := range headers {
			// Tabs and newlines would break the alignment.
			cells[i] = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(r.Cell(h))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// EncoderFormatter writes records with an export encoder.
type EncoderFormatter struct {
	Encoder export.Encoder
}

// FormatTo encodes rs and terminates the output with a newline.
func (f *EncoderFormatter) FormatTo(w io.Writer, rs record.RecordSet) error {
	var buf bytes.Buffer
	if err := f.Encoder.Encode(context.Background(), rs, &buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// NewFormatter creates a formatter for format. An empty format is a table.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch OutputFormat(strings.ToLower(string(format))) {
	case FormatTable, "":
		return &TableFormatter{}, nil
	case FormatJSON:
		return &EncoderFormatter{Encoder: export.NewJSONEncoder(true)}, nil
	case FormatCSV:
		return &EncoderFormatter{Encoder: export.NewCSVEncoder(false)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: table, json, csv)", format)
	}
}
