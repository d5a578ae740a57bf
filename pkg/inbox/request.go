package inbox

import (
	"fmt"
	"path/filepath"
	"strings"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/source"
)

// Request is an export request decoded from an inbox file name.
type Request struct {
	Path   string      // Input file
	Kind   source.Kind // Input kind from the last extension
	Base   string      // Artifact base name
	Format string      // Requested format
}

// ParseName decodes an inbox file name. The segment before the input
// extension selects the format only when it names one; otherwise it stays
// part of the base name and defaultFormat applies.
func ParseName(path, defaultFormat string) (*Request, error) {
	kind, err := source.DetectKind(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	req := &Request{Path: path, Kind: kind, Base: stem, Format: defaultFormat}

	if ext := filepath.Ext(stem); ext != "" && ext != stem {
		if f, err := export.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
			req.Base = strings.TrimSuffix(stem, ext)
			req.Format = string(f)
		}
	}
	if req.Base == "" {
		return nil, fmt.Errorf("inbox file %q has no base name", name)
	}
	return req, nil
}

// ignored reports whether name is never treated as a request.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, errorSuffix)
}
