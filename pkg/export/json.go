package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"fleetdesk/exporter/pkg/record"
)

// JSONEncoder encodes records as a JSON array. Each record keeps its own
// fields and key order; no header unification takes place.
type JSONEncoder struct {
	// Indent is the per-level indentation. Empty means compact output.
	Indent string
}

// NewJSONEncoder creates a new JSON encoder. If pretty is true the output
// is indented with two spaces.
func NewJSONEncoder(pretty bool) *JSONEncoder {
	e := &JSONEncoder{}
	if pretty {
		e.Indent = "  "
	}
	return e
}

// Encode writes records as a JSON array. An empty set is written as "[]".
// HTML characters are not escaped.
func (e *JSONEncoder) Encode(ctx context.Context, records record.RecordSet, w io.Writer) error {
	if len(records) == 0 {
		if _, err := io.WriteString(w, "[]"); err != nil {
			return NewExportError(FormatJSON, 0, err)
		}
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}
	if err := enc.Encode([]record.Record(records)); err != nil {
		return NewExportError(FormatJSON, len(records), err)
	}

	if _, err := w.Write(bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		return NewExportError(FormatJSON, len(records), err)
	}
	return nil
}
