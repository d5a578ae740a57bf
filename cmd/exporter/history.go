package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fleetdesk/exporter/pkg/cli"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/history/retention"
)

var historyFlags struct {
	status string
	format string
	source string
	since  string
	until  string
	limit  int
	offset int
	order  string
	output string

	maxAge  time.Duration
	maxJobs int64
	archive string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune the export history",
	Long: `Inspect and prune the export history.

Every export, from the CLI, the API or the inbox, is recorded with its
format, file name, size and outcome.

Subcommands:
  list   - List recorded export jobs
  prune  - Delete old jobs and exported files`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List export jobs",
	Long: `List recorded export jobs, newest first.

Time Format:
  --since and --until accept an RFC 3339 timestamp or a duration that is
  subtracted from now, e.g. 24h.

Examples:
  # Failed exports of the last day
  exporter history list --status failed --since 24h

  # PDF exports from the API as CSV
  exporter history list --format pdf --source http --output csv`,
	RunE: runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old export jobs",
	Long: `Delete export jobs (and, with history.retention.prune_output, exported
files) according to the retention settings.

Examples:
  # Apply the configured retention now
  exporter history prune

  # Keep one week and at most 10000 jobs, archiving what is removed
  exporter history prune --max-age 168h --max-jobs 10000 --archive archive/`,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyPruneCmd)

	historyListCmd.Flags().StringVar(&historyFlags.status, "status", "", "filter by status (succeeded, failed)")
	historyListCmd.Flags().StringVar(&historyFlags.format, "format", "", "filter by document format")
	historyListCmd.Flags().StringVar(&historyFlags.source, "source", "", "filter by source (cli, http, inbox)")
	historyListCmd.Flags().StringVar(&historyFlags.since, "since", "", "only jobs started at or after this time")
	historyListCmd.Flags().StringVar(&historyFlags.until, "until", "", "only jobs started at or before this time")
	historyListCmd.Flags().IntVar(&historyFlags.limit, "limit", 100, "max results")
	historyListCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "pagination offset")
	historyListCmd.Flags().StringVar(&historyFlags.order, "order", "desc", "sort order by start time: asc, desc")
	historyListCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "table", "output format: table, json, csv")

	historyPruneCmd.Flags().DurationVar(&historyFlags.maxAge, "max-age", 0, "override history.retention.max_age")
	historyPruneCmd.Flags().Int64Var(&historyFlags.maxJobs, "max-jobs", 0, "override history.retention.max_jobs")
	historyPruneCmd.Flags().StringVar(&historyFlags.archive, "archive", "", "override history.retention.archive_dir")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(historyFlags.output))
	if err != nil {
		return cli.NewCommandError("history list", err)
	}
	query, err := historyQuery(time.Now())
	if err != nil {
		return cli.NewCommandError("history list", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	if a.Store == nil {
		return cli.NewCommandError("history list", fmt.Errorf("history.enabled is false"))
	}

	jobs, err := a.Store.List(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), history.Records(jobs))
}

// historyQuery builds the store query from the list flags.
func historyQuery(now time.Time) (*history.Query, error) {
	query := &history.Query{
		Status:    historyFlags.status,
		Format:    strings.ToLower(historyFlags.format),
		Source:    historyFlags.source,
		Limit:     historyFlags.limit,
		Offset:    historyFlags.offset,
		SortOrder: historyFlags.order,
	}
	switch query.SortOrder {
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("--order must be asc or desc, got %q", query.SortOrder)
	}
	if query.Limit < 0 || query.Offset < 0 {
		return nil, fmt.Errorf("--limit and --offset must not be negative")
	}

	var err error
	if query.StartTime, err = parseTimeFlag("since", historyFlags.since, now); err != nil {
		return nil, err
	}
	if query.EndTime, err = parseTimeFlag("until", historyFlags.until, now); err != nil {
		return nil, err
	}
	return query, nil
}

func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("--%s must be an RFC 3339 timestamp or a positive duration, got %q", name, value)
	}
	t := now.Add(-d)
	return &t, nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-age") {
		cfg.History.Retention.MaxAge = historyFlags.maxAge
	}
	if cmd.Flags().Changed("max-jobs") {
		cfg.History.Retention.MaxJobs = historyFlags.maxJobs
	}
	if historyFlags.archive != "" {
		cfg.History.Retention.ArchiveDir = historyFlags.archive
	}
	if err := revalidate(cfg); err != nil {
		return err
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	pruner, err := a.NewPruner()
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	res, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	printPruneResult(cmd, res)
	return nil
}

func printPruneResult(cmd *cobra.Command, res *retention.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Deleted %d job(s) and %d file(s)\n", res.JobsDeleted, res.FilesDeleted)
	if res.Archive != "" {
		fmt.Fprintf(out, "✓ Archived to %s\n", res.Archive)
	}
}
