package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fleetdesk/exporter/pkg/cli"
)

// resetFlags restores every flag to its default so that commands can be
// executed more than once in a test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// testEnv is a working directory with a config file pointing every
// directory into it.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`export:
  output_dir: %[1]s/exports
history:
  backend: sqlite
  sqlite:
    path: %[1]s/history.db
inbox:
  dir: %[1]s/inbox
telemetry:
  logging:
    level: error
`, filepath.ToSlash(dir))

	env := &testEnv{dir: dir, config: filepath.Join(dir, "exporter.yaml")}
	env.write(t, "exporter.yaml", cfg)
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeCommand(t, append(args, "--config", e.config)...)
	return stdout, err
}

func (e *testEnv) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

const bookings = `[{"id":1,"customer":"Smith, John"},{"id":2,"customer":"Alice"}]`

func TestExportCommand_ToOutputDir(t *testing.T) {
	env := newTestEnv(t)
	in := env.write(t, "bookings.json", bookings)

	stdout, err := env.run(t, "export", in)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(stdout, "bookings.csv (2 records") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := env.read(t, "exports/bookings.csv"); got != "id,customer\n1,\"Smith, John\"\n2,Alice" {
		t.Errorf("bookings.csv = %q", got)
	}

	stdout, err = env.run(t, "history", "list", "--output", "csv")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(stdout, ",cli,csv,csv,bookings.csv,succeeded,2,2,") {
		t.Errorf("history = %q", stdout)
	}
}

func TestExportCommand_MultipleInputs(t *testing.T) {
	env := newTestEnv(t)
	a := env.write(t, "in/bookings.json", bookings)
	b := env.write(t, "in/fleet.csv", "plate,model\nAB-123,Kia Ceed\n")
	out := filepath.Join(env.dir, "reports")

	if _, err := env.run(t, "export", a, b, "--format", "PDF", "--out", out, "--quiet"); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	for _, name := range []string{"reports/bookings.pdf", "reports/fleet.pdf"} {
		if got := env.read(t, name); !strings.HasPrefix(got, "%PDF-") {
			t.Errorf("%s is not a PDF", name)
		}
	}
}

func TestExportCommand_Stdout(t *testing.T) {
	env := newTestEnv(t)
	in := env.write(t, "bookings.json", `[{"id":1,"vehicle":"Kia"}]`)

	stdout, err := env.run(t, "export", in, "--format", "json", "--out", "-")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	want := "[\n  {\n    \"id\": 1,\n    \"vehicle\": \"Kia\"\n  }\n]"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestExportCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	valid := env.write(t, "valid.json", bookings)
	object := env.write(t, "object.json", `{"id":1}`)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"unsupported format", []string{"export", valid, "--format", "xml"}, cli.ExitRejected},
		{"not an array", []string{"export", object}, cli.ExitRejected},
		{"missing input", []string{"export", filepath.Join(env.dir, "missing.json")}, cli.ExitFailure},
		{"unknown input kind", []string{"export", env.config}, cli.ExitRejected},
		{"name with many inputs", []string{"export", valid, valid, "--name", "x"}, cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			if err == nil {
				t.Fatal("export succeeded, want error")
			}
			if got := cli.ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.wantCode)
			}
		})
	}
}

func TestConfigErrors(t *testing.T) {
	env := newTestEnv(t)
	bad := env.write(t, "bad.yaml", "export:\n  default_format: xml\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing explicit config", []string{"serve", "--dry-run", "--config", filepath.Join(env.dir, "nope.yaml")}},
		{"invalid config", []string{"serve", "--dry-run", "--config", bad}},
		{"invalid override", []string{"serve", "--dry-run", "--config", env.config, "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if got := cli.ExitCode(err); got != cli.ExitConfig {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, cli.ExitConfig)
			}
		})
	}
}

func TestServeCommand_DryRun(t *testing.T) {
	env := newTestEnv(t)
	stdout, err := env.run(t, "serve", "--dry-run", "--listen", "127.0.0.1:0", "--inbox")
	if err != nil {
		t.Fatalf("serve --dry-run failed: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestWatchCommand_Once(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "inbox/bookings.csv.json", bookings)
	env.write(t, "inbox/fleet.json", `[{"plate":"AB-123"}]`)

	stdout, err := env.run(t, "watch", "--once", "--format", "json")
	if err != nil {
		t.Fatalf("watch --once failed: %v", err)
	}
	if !strings.Contains(stdout, "Processed 2 file(s), 0 failed") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := env.read(t, "exports/bookings.csv"); !strings.HasPrefix(got, "id,customer\n") {
		t.Errorf("bookings.csv = %q", got)
	}
	if got := env.read(t, "exports/fleet"); !strings.Contains(got, `"plate": "AB-123"`) {
		t.Errorf("fleet = %q", got)
	}

	env.write(t, "inbox/broken.json", `{"not":"a list"}`)
	_, err = env.run(t, "watch", "--once")
	if got := cli.ExitCode(err); got != cli.ExitFailure {
		t.Errorf("ExitCode(%v) = %d, want %d", err, got, cli.ExitFailure)
	}
	if _, statErr := os.Stat(filepath.Join(env.dir, "inbox/failed/broken.json")); statErr != nil {
		t.Errorf("broken.json not moved to failed/: %v", statErr)
	}
}

func TestHistoryPrune(t *testing.T) {
	env := newTestEnv(t)
	in := env.write(t, "bookings.json", bookings)
	if _, err := env.run(t, "export", in, "--quiet"); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	stdout, err := env.run(t, "history", "prune", "--max-age", "1ns")
	if err != nil {
		t.Fatalf("history prune failed: %v", err)
	}
	if !strings.Contains(stdout, "Deleted 1 job(s)") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, err = env.run(t, "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if strings.Contains(stdout, "bookings.csv") {
		t.Errorf("pruned job still listed: %q", stdout)
	}
}

func TestHistoryQuery(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		since     string
		order     string
		wantStart *time.Time
		wantErr   bool
	}{
		{name: "no filter", order: "desc"},
		{name: "duration", since: "24h", order: "desc", wantStart: ptr(now.Add(-24 * time.Hour))},
		{name: "timestamp", since: "2025-03-01T00:00:00Z", order: "asc", wantStart: ptr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))},
		{name: "negative duration", since: "-1h", order: "desc", wantErr: true},
		{name: "garbage", since: "yesterday", order: "desc", wantErr: true},
		{name: "bad order", order: "newest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			historyFlags.since, historyFlags.until, historyFlags.order = tt.since, "", tt.order
			historyFlags.limit, historyFlags.offset = 100, 0

			q, err := historyQuery(now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("historyQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			switch {
			case tt.wantStart == nil && q.StartTime != nil:
				t.Errorf("StartTime = %v, want nil", q.StartTime)
			case tt.wantStart != nil && (q.StartTime == nil || !q.StartTime.Equal(*tt.wantStart)):
				t.Errorf("StartTime = %v, want %v", q.StartTime, tt.wantStart)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
