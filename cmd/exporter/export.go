package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fleetdesk/exporter/pkg/cli"
	"fleetdesk/exporter/pkg/delivery"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/source"
)

// cliSource tags jobs started from the command line in the history.
const cliSource = "cli"

var exportFlags struct {
	format string
	out    string
	name   string
	quiet  bool
}

var exportCmd = &cobra.Command{
	Use:   "export [file...]",
	Short: "Export record files to CSV, JSON or PDF",
	Long: `Export one or more record files.

Inputs are JSON arrays of objects (.json), spreadsheets (.xlsx, first sheet,
header row as field names) or CSV files (.csv). Without arguments, or with
"-", a JSON array is read from stdin.

The document is named after the input file unless --name is given. CSV and
PDF documents get their extension appended; JSON documents keep the name as
given.

Exit codes:
  0  every input was exported
  1  a document could not be encoded or delivered
  2  the configuration is invalid
  3  an input or the format was rejected

Examples:
  # Export to the configured output directory as CSV
  exporter export bookings.json

  # Export several files as PDF into ./reports
  exporter export bookings.json vehicles.xlsx --format pdf --out reports

  # Pipe records in and the document out
  cat bookings.json | exporter export --format json --out - > bookings.json.out`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "", "document format: csv, json, pdf (default from config)")
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", `output directory, or "-" for stdout (default from config)`)
	exportCmd.Flags().StringVarP(&exportFlags.name, "name", "n", "", "document base name (single input only)")
	exportCmd.Flags().BoolVarP(&exportFlags.quiet, "quiet", "q", false, "do not print progress or results")
}

func runExport(cmd *cobra.Command, args []string) error {
	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if exportFlags.name != "" && len(inputs) > 1 {
		return cli.NewCommandError("export", errors.New("--name can only be used with a single input"))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format := exportFlags.format
	if format == "" {
		format = cfg.Export.DefaultFormat
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
	ctx = history.WithSource(ctx, cliSource)

	toStdout := exportFlags.out == "-"
	var sink export.Sink
	switch {
	case toStdout:
		sink = delivery.NewWriterSink(cmd.OutOrStdout())
	case exportFlags.out != "":
		sink = delivery.NewFileSink(exportFlags.out)
	default:
		sink = delivery.NewFileSink(cfg.Export.OutputDir)
	}
	if !exportFlags.quiet && !toStdout {
		dir := exportFlags.out
		if dir == "" {
			dir = cfg.Export.OutputDir
		}
		sink = &reportingSink{Sink: sink, w: cmd.OutOrStdout(), dir: dir}
	}

	var progress cli.ProgressReporter = cli.NopProgress{}
	if !exportFlags.quiet && len(inputs) > 1 {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	var errs []error
	progress.Start(int64(len(inputs)))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := exportFile(ctx, a.Dispatcher, sink, in, format, exportFlags.name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", displayName(in), err))
		}
		progress.Update(int64(i + 1))
	}

	if err := errors.Join(errs...); err != nil {
		progress.Error(err)
		return cli.NewCommandError("export", err)
	}
	progress.Finish()
	return nil
}

func exportFile(ctx context.Context, d *export.Dispatcher, sink export.Sink, path, format, name string) error {
	rs, err := source.Load(ctx, path)
	if err != nil {
		return err
	}
	if name == "" {
		name = baseName(path)
	}
	return d.ExportTo(ctx, sink, rs, format, name)
}

// baseName derives the document name from an input path. Stdin gets the
// configured default.
func baseName(path string) string {
	if path == "-" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

// reportingSink prints one line per delivered document.
type reportingSink struct {
	export.Sink
	w   io.Writer
	dir string
}

func (s *reportingSink) Deliver(ctx context.Context, a *export.Artifact) error {
	if err := s.Sink.Deliver(ctx, a); err != nil {
		return err
	}
	fmt.Fprintf(s.w, "✓ %s (%d records, %d bytes)\n", filepath.Join(s.dir, a.Name), a.Records, a.Size())
	return nil
}
