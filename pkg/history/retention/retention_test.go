package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"fleetdesk/exporter/pkg/history"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, ages ...time.Duration) *history.MemoryStore {
	t.Helper()
	store := history.NewMemoryStore()
	for i, age := range ages {
		job := &history.Job{
			ID:        fmt.Sprintf("job-%d", i),
			Source:    "cli",
			Format:    "csv",
			Status:    history.StatusSucceeded,
			StartedAt: now.Add(-age),
		}
		if err := store.Record(context.Background(), job); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func newTestPruner(store history.Store, cfg *Config) *Pruner {
	p := NewPruner(store, cfg)
	p.now = func() time.Time { return now }
	return p
}

func remaining(t *testing.T, store history.Store) []string {
	t.Helper()
	jobs, err := store.List(context.Background(), &history.Query{SortOrder: "asc"})
	if err != nil {
		t.Fatal(err)
	}
	out := []string{}
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestPruner_Prune(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		name        string
		cfg         *Config
		wantDeleted int64
		wantLeft    []string
	}{
		{
			name:        "by age",
			cfg:         &Config{MaxAge: 7 * day},
			wantDeleted: 2,
			wantLeft:    []string{"job-2", "job-3"},
		},
		{
			name:        "by count",
			cfg:         &Config{MaxJobs: 1},
			wantDeleted: 3,
			wantLeft:    []string{"job-3"},
		},
		{
			name:        "age then count",
			cfg:         &Config{MaxAge: 7 * day, MaxJobs: 1},
			wantDeleted: 3,
			wantLeft:    []string{"job-3"},
		},
		{
			name:        "disabled",
			cfg:         &Config{},
			wantDeleted: 0,
			wantLeft:    []string{"job-0", "job-1", "job-2", "job-3"},
		},
		{
			name:        "within limits",
			cfg:         &Config{MaxAge: 90 * day, MaxJobs: 10},
			wantDeleted: 0,
			wantLeft:    []string{"job-0", "job-1", "job-2", "job-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seedStore(t, 30*day, 10*day, 2*day, time.Hour)
			res, err := newTestPruner(store, tt.cfg).Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() failed: %v", err)
			}
			if res.JobsDeleted != tt.wantDeleted {
				t.Errorf("JobsDeleted = %d, want %d", res.JobsDeleted, tt.wantDeleted)
			}
			if diff := cmp.Diff(tt.wantLeft, remaining(t, store)); diff != "" {
				t.Errorf("remaining jobs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPruner_TiedStartTimes(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		name        string
		ages        []time.Duration
		cfg         *Config
		wantDeleted int64
		wantLeft    []string
	}{
		{
			name:        "count boundary splits a tie",
			ages:        []time.Duration{30 * day, 10 * day, 10 * day, time.Hour},
			cfg:         &Config{MaxJobs: 2},
			wantDeleted: 2,
			wantLeft:    []string{"job-2", "job-3"},
		},
		{
			name:        "tie past the age cutoff",
			ages:        []time.Duration{30 * day, 30 * day, 2 * day},
			cfg:         &Config{MaxAge: 7 * day},
			wantDeleted: 2,
			wantLeft:    []string{"job-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seedStore(t, tt.ages...)
			res, err := newTestPruner(store, tt.cfg).Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() failed: %v", err)
			}
			if res.JobsDeleted != tt.wantDeleted {
				t.Errorf("JobsDeleted = %d, want %d", res.JobsDeleted, tt.wantDeleted)
			}
			if diff := cmp.Diff(tt.wantLeft, remaining(t, store)); diff != "" {
				t.Errorf("remaining jobs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPruner_DeletesInBatches(t *testing.T) {
	ages := make([]time.Duration, 2*deleteBatchSize+3)
	for i := range ages {
		ages[i] = time.Duration(len(ages)-i) * time.Minute
	}
	store := seedStore(t, ages...)

	res, err := newTestPruner(store, &Config{MaxJobs: 1}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if want := int64(len(ages) - 1); res.JobsDeleted != want {
		t.Errorf("JobsDeleted = %d, want %d", res.JobsDeleted, want)
	}
	want := []string{fmt.Sprintf("job-%d", len(ages)-1)}
	if diff := cmp.Diff(want, remaining(t, store)); diff != "" {
		t.Errorf("remaining jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestPruner_Archive(t *testing.T) {
	dir := t.TempDir()
	store := seedStore(t, 48*time.Hour, time.Hour)

	res, err := newTestPruner(store, &Config{MaxAge: 24 * time.Hour, ArchiveDir: dir}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if res.Archive != filepath.Join(dir, "history-2025-06-30-120000.json") {
		t.Errorf("Archive = %q", res.Archive)
	}

	data, err := os.ReadFile(res.Archive)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	var archived []map[string]any
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive is not JSON: %v", err)
	}
	if len(archived) != 1 || archived[0]["id"] != "job-0" {
		t.Errorf("archived = %v", archived)
	}
}

func TestPruner_Files(t *testing.T) {
	dir := t.TempDir()
	files := map[string]time.Duration{
		"old.csv":         40 * 24 * time.Hour,
		"fresh.pdf":       time.Hour,
		".export-1.tmp":   2 * time.Hour,
		".export-2.tmp":   time.Minute,
		"unrelated.notes": time.Minute,
	}
	for name, age := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := now.Add(-age)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "processed"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := newTestPruner(history.NewMemoryStore(), &Config{MaxAge: 30 * 24 * time.Hour, OutputDir: dir})
	res, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if res.FilesDeleted != 2 {
		t.Errorf("FilesDeleted = %d, want 2", res.FilesDeleted)
	}

	entries, _ := os.ReadDir(dir)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	want := []string{".export-2.tmp", "fresh.pdf", "processed", "unrelated.notes"}
	if diff := cmp.Diff(want, left); diff != "" {
		t.Errorf("remaining files mismatch (-want +got):\n%s", diff)
	}
}

func TestPruner_MissingOutputDir(t *testing.T) {
	p := newTestPruner(history.NewMemoryStore(), &Config{MaxAge: time.Hour, OutputDir: filepath.Join(t.TempDir(), "missing")})
	if _, err := p.Prune(context.Background()); err != nil {
		t.Errorf("Prune() error = %v, want nil", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(NewPruner(history.NewMemoryStore(), &Config{Schedule: "0 3 * * *"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	next := s.NextRun()
	if next == nil || next.Hour() != 3 {
		t.Errorf("NextRun() = %v, want 03:00", next)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	s := NewScheduler(NewPruner(history.NewMemoryStore(), &Config{Schedule: "@every 1h"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if s.IsRunning() {
		t.Error("scheduler still running after cancel")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(NewPruner(history.NewMemoryStore(), &Config{Schedule: "not a schedule"}))
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() expected error for invalid schedule")
	}
}

func TestScheduler_EmptySchedule(t *testing.T) {
	s := NewScheduler(NewPruner(history.NewMemoryStore(), &Config{}))
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true with empty schedule")
	}
}

type pruneCounter struct{ jobs, files, runs int64 }

func (c *pruneCounter) RecordPrune(jobs, files int64) {
	c.jobs += jobs
	c.files += files
	c.runs++
}

func TestPruner_Recorder(t *testing.T) {
	store := seedStore(t, 30*24*time.Hour, time.Hour)
	counter := &pruneCounter{}
	p := newTestPruner(store, &Config{MaxAge: 24 * time.Hour}).WithRecorder(counter)

	for i := 0; i < 2; i++ {
		if _, err := p.Prune(context.Background()); err != nil {
			t.Fatalf("Prune() failed: %v", err)
		}
	}
	if counter.runs != 2 || counter.jobs != 1 || counter.files != 0 {
		t.Errorf("recorder = %+v, want 2 runs and 1 job", counter)
	}
}
