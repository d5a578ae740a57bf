package retention

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"fleetdesk/exporter/pkg/delivery"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
)

// staleTempAge is how old an in-flight delivery file must be before it is
// considered abandoned.
const staleTempAge = time.Hour

// Config contains configuration for the retention pruner.
type Config struct {
	// MaxAge is how long jobs and exported files are kept.
	// 0 means keep forever.
	MaxAge time.Duration

	// MaxJobs is the maximum number of jobs to keep. 0 means unlimited.
	MaxJobs int64

	// Schedule is a cron expression for scheduled pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	Schedule string

	// ArchiveDir, when set, receives a JSON export of every job before it
	// is deleted.
	ArchiveDir string

	// OutputDir is the export output directory to prune. Empty disables
	// file pruning.
	OutputDir string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:   30 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// Result summarizes one pruning run.
type Result struct {
	JobsDeleted  int64
	FilesDeleted int
	Archive      string // Archive file path, empty if nothing was archived
}

// PruneRecorder is told how much every successful run removed.
type PruneRecorder interface {
	RecordPrune(jobs, files int64)
}

// deleteBatchSize keeps id lists under SQLite's bound parameter limit.
const deleteBatchSize = 500

// Pruner enforces retention on export history and output files.
type Pruner struct {
	store    history.Store
	config   *Config
	now      func() time.Time
	recorder PruneRecorder
	logger   *slog.Logger
}

// NewPruner creates a new pruner.
func NewPruner(store history.Store, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		store:  store,
		config: config,
		now:    time.Now,
		logger: slog.Default().With("component", "history.retention"),
	}
}

// WithRecorder sets the recorder of pruning results.
func (p *Pruner) WithRecorder(r PruneRecorder) *Pruner {
	p.recorder = r
	return p
}

// Prune deletes jobs older than MaxAge, then the oldest jobs beyond
// MaxJobs, then stale files in OutputDir.
func (p *Pruner) Prune(ctx context.Context) (*Result, error) {
	res := &Result{}
	var victims []*history.Job

	if p.config.MaxAge > 0 {
		cutoff := p.now().Add(-p.config.MaxAge)
		jobs, err := p.store.List(ctx, &history.Query{EndTime: &cutoff, SortOrder: "asc", Limit: math.MaxInt32})
		if err != nil {
			return res, fmt.Errorf("list expired jobs: %w", err)
		}
		victims = append(victims, jobs...)
	}

	if p.config.MaxJobs > 0 {
		count, err := p.store.Count(ctx, nil)
		if err != nil {
			return res, fmt.Errorf("count jobs: %w", err)
		}
		excess := count - int64(len(victims)) - p.config.MaxJobs
		if excess > 0 {
			// Oldest first, skipping the jobs already selected by age.
			jobs, err := p.store.List(ctx, &history.Query{SortOrder: "asc", Offset: len(victims), Limit: int(excess)})
			if err != nil {
				return res, fmt.Errorf("list excess jobs: %w", err)
			}
			victims = append(victims, jobs...)
		}
	}

	if len(victims) > 0 {
		if p.config.ArchiveDir != "" {
			path, err := p.archive(ctx, victims)
			if err != nil {
				return res, fmt.Errorf("archive jobs: %w", err)
			}
			res.Archive = path
		}

		// Delete by id: a range delete up to the last victim would also
		// take newer jobs sharing its start time.
		for batch := range slices.Chunk(victims, deleteBatchSize) {
			ids := make([]string, len(batch))
			for i, job := range batch {
				ids[i] = job.ID
			}
			deleted, err := p.store.Delete(ctx, &history.Query{IDs: ids})
			res.JobsDeleted += deleted
			if err != nil {
				return res, fmt.Errorf("delete jobs: %w", err)
			}
		}
	}

	if p.config.OutputDir != "" {
		n, err := p.pruneFiles()
		res.FilesDeleted = n
		if err != nil {
			return res, fmt.Errorf("prune output files: %w", err)
		}
	}

	if p.recorder != nil {
		p.recorder.RecordPrune(res.JobsDeleted, int64(res.FilesDeleted))
	}
	if res.JobsDeleted == 0 && res.FilesDeleted == 0 {
		p.logger.Debug("nothing pruned",
			"max_age", p.config.MaxAge,
			"max_jobs", p.config.MaxJobs,
		)
	} else {
		p.logger.Info("pruning completed",
			"jobs_deleted", res.JobsDeleted,
			"files_deleted", res.FilesDeleted,
			"archive", res.Archive,
		)
	}
	return res, nil
}

// archive writes jobs as a JSON export into ArchiveDir.
func (p *Pruner) archive(ctx context.Context, jobs []*history.Job) (string, error) {
	var buf bytes.Buffer
	if err := export.NewJSONEncoder(true).Encode(ctx, history.Records(jobs), &buf); err != nil {
		return "", err
	}

	name := fmt.Sprintf("history-%s.json", p.now().UTC().Format("2006-01-02-150405"))
	a := &export.Artifact{
		Name:     name,
		MIMEType: export.FormatJSON.MIMEType(),
		Format:   export.FormatJSON,
		Body:     buf.Bytes(),
		Records:  len(jobs),
	}
	sink := delivery.NewFileSink(p.config.ArchiveDir)
	if err := sink.Deliver(ctx, a); err != nil {
		return "", err
	}

	path, _ := sink.Path(name)
	p.logger.Info("export history archived", "archive_file", path, "job_count", len(jobs))
	return path, nil
}

// pruneFiles removes regular files older than MaxAge and abandoned
// temporary files. Subdirectories are left alone.
func (p *Pruner) pruneFiles() (int, error) {
	entries, err := os.ReadDir(p.config.OutputDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	now := p.now()
	deleted := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())

		expired := p.config.MaxAge > 0 && age > p.config.MaxAge
		abandoned := delivery.IsTempFile(e.Name()) && age > staleTempAge
		if !expired && !abandoned {
			continue
		}

		path := filepath.Join(p.config.OutputDir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("failed to remove file", "path", path, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Config returns the pruner configuration.
func (p *Pruner) Config() *Config {
	return p.config
}
