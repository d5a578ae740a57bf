package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fleetdesk/exporter/pkg/export"
)

// tempPattern is the name pattern of in-flight files. Retention skips them.
const tempPattern = ".export-*.tmp"

// FileSink writes artifacts into Dir.
type FileSink struct {
	Dir      string
	FileMode os.FileMode

	logger *slog.Logger
}

// NewFileSink creates a file sink writing into dir. The directory is created
// on first delivery if needed.
func NewFileSink(dir string) *FileSink {
	return &FileSink{
		Dir:      dir,
		FileMode: 0o644,
		logger:   slog.Default().With("component", "delivery.file"),
	}
}

// Path returns the destination path of an artifact name.
func (s *FileSink) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsRune(name, os.PathSeparator) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(s.Dir, name), nil
}

// Deliver writes the artifact body to a temporary file in Dir and renames it
// to its final name. An existing file with that name is replaced.
func (s *FileSink) Deliver(ctx context.Context, a *export.Artifact) error {
	dest, err := s.Path(a.Name)
	if err != nil {
		return NewDeliveryError("file", a.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return NewDeliveryError("file", a.Name, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return NewDeliveryError("file", a.Name, err)
	}

	tmp, err := os.CreateTemp(s.Dir, tempPattern)
	if err != nil {
		return NewDeliveryError("file", a.Name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// A successful rename leaves nothing to remove.
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("failed to remove temporary file", "path", tmpName, "error", rmErr)
		}
	}()

	if _, err := tmp.Write(a.Body); err != nil {
		tmp.Close()
		return NewDeliveryError("file", a.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return NewDeliveryError("file", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return NewDeliveryError("file", a.Name, err)
	}
	if err := os.Chmod(tmpName, s.FileMode); err != nil {
		return NewDeliveryError("file", a.Name, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return NewDeliveryError("file", a.Name, err)
	}

	s.logger.Debug("artifact written", "path", dest, "bytes", a.Size())
	return nil
}

// IsTempFile reports whether name is an in-flight file created by FileSink.
func IsTempFile(name string) bool {
	ok, _ := filepath.Match(tempPattern, filepath.Base(name))
	return ok
}
