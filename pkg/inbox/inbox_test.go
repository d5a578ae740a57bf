package inbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRecorder struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *countingRecorder) RecordInboxFile(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (c *countingRecorder) count(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[result]
}

type testInbox struct {
	watcher  *Watcher
	store    *history.MemoryStore
	recorder *countingRecorder
	in, out  string
}

func newTestInbox(t *testing.T) *testInbox {
	t.Helper()
	root := t.TempDir()
	store := history.NewMemoryStore()
	recorder := &countingRecorder{}

	cfg := &Config{
		Dir:           filepath.Join(root, "inbox"),
		OutputDir:     filepath.Join(root, "out"),
		DefaultFormat: "csv",
		Settle:        20 * time.Millisecond,
	}
	d := export.NewDispatcher(nil, export.WithObserver(history.NewRecorder(store, time.Second)))
	w := NewWatcher(cfg, d, recorder)
	if err := w.ensureDirs(); err != nil {
		t.Fatal(err)
	}
	return &testInbox{watcher: w, store: store, recorder: recorder, in: cfg.Dir, out: cfg.OutputDir}
}

func (ti *testInbox) drop(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(ti.in, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(b)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name       string
		wantBase   string
		wantFormat string
		wantKind   source.Kind
		wantErr    bool
	}{
		{"bookings.csv.json", "bookings", "csv", source.KindJSON, false},
		{"fleet.PDF.xlsx", "fleet", "pdf", source.KindXLSX, false},
		{"fleet-2025.03.json.csv", "fleet-2025.03", "json", source.KindCSV, false},
		{"fleet-2025.03.json", "fleet-2025.03", "csv", source.KindJSON, false},
		{"v1.2.pdf.json", "v1.2", "pdf", source.KindJSON, false},
		{"bookings.json", "bookings", "csv", source.KindJSON, false},
		{"bookings.xml.json", "bookings.xml", "csv", source.KindJSON, false},
		{"bookings..json", "bookings.", "csv", source.KindJSON, false},
		{".json", "", "", "", true},
		{"notes.txt", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseName(filepath.Join("inbox", tt.name), "csv")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if req.Base != tt.wantBase || req.Format != tt.wantFormat || req.Kind != tt.wantKind {
				t.Errorf("ParseName() = %+v", req)
			}
		})
	}
}

func TestProcess_ExportsAndMoves(t *testing.T) {
	ti := newTestInbox(t)
	path := ti.drop(t, "bookings.csv.json", `[{"id":1,"customer":"Smith, John"},{"id":2}]`)

	if err := ti.watcher.Process(context.Background(), path); err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if got := readFile(t, filepath.Join(ti.out, "bookings.csv")); got != "id,customer\n1,\"Smith, John\"\n2," {
		t.Errorf("artifact = %q", got)
	}
	if exists(path) {
		t.Error("input still in the inbox")
	}
	if !exists(filepath.Join(ti.watcher.ProcessedDir(), "bookings.csv.json")) {
		t.Error("input not moved to processed/")
	}

	jobs, _ := ti.store.List(context.Background(), nil)
	if len(jobs) != 1 || jobs[0].Source != Source || jobs[0].Status != history.StatusSucceeded {
		t.Errorf("history = %+v", jobs)
	}
	if ti.recorder.count(ResultProcessed) != 1 {
		t.Errorf("processed count = %d", ti.recorder.count(ResultProcessed))
	}
}

func TestProcess_Failures(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantInErr  string
		wantJobRow bool
		format     string
	}{
		{"not an array", "bookings.csv.json", `{"id":1}`, "expected a JSON array", false, ""},
		{"unsupported default format", "bookings.json", `[{"id":1}]`, "unsupported format", true, "xml"},
		{"unknown input kind", "notes.txt", "hello", "unknown source kind", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := newTestInbox(t)
			if tt.format != "" {
				ti.watcher.config.DefaultFormat = tt.format
			}
			path := ti.drop(t, tt.file, tt.content)

			if err := ti.watcher.Process(context.Background(), path); err == nil {
				t.Fatal("Process() succeeded, want error")
			}

			failed := filepath.Join(ti.watcher.FailedDir(), tt.file)
			if !exists(failed) {
				t.Fatal("input not moved to failed/")
			}
			if msg := readFile(t, failed+errorSuffix); !strings.Contains(msg, tt.wantInErr) {
				t.Errorf("error file = %q, want it to contain %q", msg, tt.wantInErr)
			}
			entries, _ := os.ReadDir(ti.out)
			if len(entries) != 0 {
				t.Errorf("output dir has %d entries, want 0", len(entries))
			}

			n, _ := ti.store.Count(context.Background(), &history.Query{Status: history.StatusFailed})
			if (n == 1) != tt.wantJobRow {
				t.Errorf("failed history rows = %d", n)
			}
			if ti.recorder.count(ResultFailed) != 1 {
				t.Errorf("failed count = %d", ti.recorder.count(ResultFailed))
			}
		})
	}
}

func TestProcess_DottedBaseName(t *testing.T) {
	ti := newTestInbox(t)
	path := ti.drop(t, "fleet-2025.03.json", `[{"plate":"AB-123"}]`)

	if err := ti.watcher.Process(context.Background(), path); err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	if got := readFile(t, filepath.Join(ti.out, "fleet-2025.03.csv")); got != "plate\nAB-123" {
		t.Errorf("artifact = %q", got)
	}
	if !exists(filepath.Join(ti.watcher.ProcessedDir(), "fleet-2025.03.json")) {
		t.Error("input not moved to processed/")
	}
}

func TestProcess_Spreadsheet(t *testing.T) {
	ti := newTestInbox(t)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"plate", "seats"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"AB-123", 5})
	path := filepath.Join(ti.in, "fleet.json.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	if err := ti.watcher.Process(context.Background(), path); err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	// JSON artifacts keep the base name without an extension.
	want := "[\n  {\n    \"plate\": \"AB-123\",\n    \"seats\": 5\n  }\n]"
	if got := readFile(t, filepath.Join(ti.out, "fleet")); got != want {
		t.Errorf("artifact = %q, want %q", got, want)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	ti := newTestInbox(t)
	path := ti.drop(t, "bookings.csv.json", `[{"id":1}]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ti.watcher.Process(ctx, path); err == nil {
		t.Fatal("Process() succeeded with a cancelled context")
	}
	if !exists(path) {
		t.Error("interrupted input must stay in the inbox")
	}
}

func TestProcessAll(t *testing.T) {
	ti := newTestInbox(t)
	ti.drop(t, "a.csv.json", `[{"x":1}]`)
	ti.drop(t, "b.json.json", `[{"x":2}]`)
	ti.drop(t, "c.csv.json", `not json`)
	ti.drop(t, ".hidden.csv.json", `[{"x":3}]`)

	processed, failed, err := ti.watcher.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("ProcessAll() failed: %v", err)
	}
	if processed != 2 || failed != 1 {
		t.Errorf("ProcessAll() = %d processed, %d failed, want 2 and 1", processed, failed)
	}
	if !exists(filepath.Join(ti.in, ".hidden.csv.json")) {
		t.Error("hidden file must be ignored")
	}
	if !exists(filepath.Join(ti.out, "a.csv")) || !exists(filepath.Join(ti.out, "b")) {
		t.Error("missing artifacts")
	}
}

func TestWatcher_Run(t *testing.T) {
	ti := newTestInbox(t)
	existing := ti.drop(t, "before.csv.json", `[{"id":0}]`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ti.watcher.Run(ctx) }()

	waitFor(t, func() bool { return exists(filepath.Join(ti.out, "before.csv")) })
	if exists(existing) {
		t.Error("pre-existing input not moved")
	}

	ti.drop(t, "bookings.csv.json", `[{"id":1,"vehicle":"Kia Ceed"}]`)
	waitFor(t, func() bool { return exists(filepath.Join(ti.out, "bookings.csv")) })
	if got := readFile(t, filepath.Join(ti.out, "bookings.csv")); got != "id,vehicle\n1,Kia Ceed" {
		t.Errorf("artifact = %q", got)
	}

	ti.drop(t, "broken.csv.json", `{}`)
	waitFor(t, func() bool { return exists(filepath.Join(ti.watcher.FailedDir(), "broken.csv.json")) })

	if err := ti.watcher.Run(ctx); err == nil {
		t.Error("second Run() must fail while running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}
