package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fleetdesk/exporter/pkg/delivery"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/source"
)

// Source is the history source of inbox exports.
const Source = "inbox"

// Result labels passed to FileRecorder.
const (
	ResultProcessed = "processed"
	ResultFailed    = "failed"
)

const errorSuffix = ".error"

// Config contains configuration for a Watcher.
type Config struct {
	// Dir is the watched directory.
	Dir string

	// OutputDir receives the artifacts.
	OutputDir string

	// DefaultFormat applies to names without a format segment.
	// Default: "csv"
	DefaultFormat string

	// Settle is how long a file must stay unchanged before processing.
	// Default: 500ms
	Settle time.Duration
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:           "inbox",
		OutputDir:     "exports",
		DefaultFormat: "csv",
		Settle:        500 * time.Millisecond,
	}
}

// FileRecorder counts handled files.
type FileRecorder interface {
	RecordInboxFile(result string)
}

// Watcher processes files dropped into Config.Dir.
type Watcher struct {
	config     *Config
	dispatcher *export.Dispatcher
	sink       *delivery.FileSink
	recorder   FileRecorder
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	running bool
}

// NewWatcher creates a watcher exporting through dispatcher. recorder may be
// nil.
func NewWatcher(cfg *Config, dispatcher *export.Dispatcher, recorder FileRecorder) *Watcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultConfig().Settle
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = DefaultConfig().DefaultFormat
	}
	return &Watcher{
		config:     cfg,
		dispatcher: dispatcher,
		sink:       delivery.NewFileSink(cfg.OutputDir),
		recorder:   recorder,
		logger:     slog.Default().With("component", "inbox"),
		pending:    make(map[string]*time.Timer),
	}
}

// ProcessedDir returns where successfully exported inputs are moved.
func (w *Watcher) ProcessedDir() string { return filepath.Join(w.config.Dir, "processed") }

// FailedDir returns where rejected inputs are moved.
func (w *Watcher) FailedDir() string { return filepath.Join(w.config.Dir, "failed") }

func (w *Watcher) ensureDirs() error {
	for _, dir := range []string{w.config.Dir, w.ProcessedDir(), w.FailedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create inbox directory: %w", err)
		}
	}
	return nil
}

// Run watches the inbox until ctx is cancelled. Files already present are
// queued first.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("inbox watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.ensureDirs(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	ready := make(chan string)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ready:
				if ctx.Err() == nil {
					_ = w.Process(ctx, path)
				}
			}
		}
	}()
	defer func() {
		w.stopPending()
		cancel()
		wg.Wait()
	}()

	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.schedule(ctx, path, ready)
	}

	w.logger.Info("inbox watcher started",
		"dir", w.config.Dir,
		"output_dir", w.config.OutputDir,
		"settle", w.config.Settle.String(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Dir(event.Name) != filepath.Clean(w.config.Dir) || ignored(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				w.logger.Debug("inbox event", "path", event.Name, "op", event.Op.String())
				w.schedule(ctx, event.Name, ready)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				w.unschedule(event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("inbox watcher error", "error", err)
		}
	}
}

// schedule (re)arms the settle timer of path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.config.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.config.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) unschedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// scan lists regular request files in the inbox.
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && !ignored(e.Name()) {
			paths = append(paths, filepath.Join(w.config.Dir, e.Name()))
		}
	}
	return paths, nil
}

// ProcessAll processes every file currently in the inbox once, without
// watching.
func (w *Watcher) ProcessAll(ctx context.Context) (processed, failed int, err error) {
	if err := w.ensureDirs(); err != nil {
		return 0, 0, err
	}
	paths, err := w.scan()
	if err != nil {
		return 0, 0, err
	}
	for _, path := range paths {
		if ctx.Err() != nil {
			return processed, failed, ctx.Err()
		}
		if w.Process(ctx, path) != nil {
			failed++
		} else {
			processed++
		}
	}
	return processed, failed, nil
}

// Process exports one inbox file and moves it to processed/ or failed/.
func (w *Watcher) Process(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	err := w.export(ctx, path)
	if err != nil && ctx.Err() != nil {
		// Interrupted, not rejected. The file is retried on the next run.
		return err
	}
	if err != nil {
		w.logger.WarnContext(ctx, "inbox file failed", "path", path, "error", err)
		w.record(ResultFailed)
		if moveErr := w.move(path, w.FailedDir(), err); moveErr != nil {
			w.logger.Error("failed to move inbox file", "path", path, "error", moveErr)
		}
		return err
	}

	w.logger.InfoContext(ctx, "inbox file exported", "path", path)
	w.record(ResultProcessed)
	if moveErr := w.move(path, w.ProcessedDir(), nil); moveErr != nil {
		w.logger.Error("failed to move inbox file", "path", path, "error", moveErr)
	}
	return nil
}

func (w *Watcher) export(ctx context.Context, path string) error {
	req, err := ParseName(path, w.config.DefaultFormat)
	if err != nil {
		return err
	}
	records, err := source.Load(ctx, path)
	if err != nil {
		return err
	}
	ctx = history.WithSource(ctx, Source)
	return w.dispatcher.ExportTo(ctx, w.sink, records, req.Format, req.Base)
}

// move renames path into dir. For failures the error text is written next
// to it.
func (w *Watcher) move(path, dir string, cause error) error {
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return err
	}
	if cause != nil {
		return os.WriteFile(dest+errorSuffix, []byte(cause.Error()+"\n"), 0o644)
	}
	return nil
}

func (w *Watcher) record(result string) {
	if w.recorder != nil {
		w.recorder.RecordInboxFile(result)
	}
}
