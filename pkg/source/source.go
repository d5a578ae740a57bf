package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fleetdesk/exporter/pkg/record"
)

// Kind is an input file kind.
type Kind string

const (
	KindJSON Kind = "json"
	KindXLSX Kind = "xlsx"
	KindCSV  Kind = "csv"
)

// ErrUnknownKind is returned for files whose extension is not recognized.
var ErrUnknownKind = errors.New("unknown source kind")

// SourceError reports a file that could not be loaded.
type SourceError struct {
	Path  string
	Kind  Kind
	Cause error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s source %s: %v", e.Kind, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

// DetectKind returns the kind for path based on its extension.
func DetectKind(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindJSON, nil
	case ".xlsx":
		return KindXLSX, nil
	case ".csv":
		return KindCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, filepath.Base(path))
	}
}

// Load reads path and returns its records. "-" reads JSON from stdin.
func Load(ctx context.Context, path string) (record.RecordSet, error) {
	if path == "-" {
		return Read(ctx, KindJSON, os.Stdin)
	}

	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Kind: kind, Cause: err}
	}
	defer f.Close()

	rs, err := Read(ctx, kind, f)
	if err != nil {
		return nil, &SourceError{Path: path, Kind: kind, Cause: err}
	}
	return rs, nil
}

// Read decodes records of the given kind from r.
func Read(ctx context.Context, kind Kind, r io.Reader) (record.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch kind {
	case KindJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return record.ParseJSON(data)
	case KindXLSX:
		return ReadXLSX(r, "")
	case KindCSV:
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// rowRecord builds a record from a header and one row of cells. Empty
// headers and empty cells are skipped.
func rowRecord(headers []string, cells []string, value func(col int, cell string) record.Value) record.Record {
	var r record.Record
	for i, cell := range cells {
		if i >= len(headers) || headers[i] == "" || cell == "" {
			continue
		}
		r.Set(headers[i], value(i, cell))
	}
	return r
}
