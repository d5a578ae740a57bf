/*
Package cli provides command-line helpers for the exporter binary.

Result Formatting:

Tabular command results (export history, batch summaries) are record sets
and can be printed as an aligned table, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatTable)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, history.Records(jobs)); err != nil {
		return err
	}

Progress Reporting:

Batch exports report one step per input file on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(inputs)))
	for i, in := range inputs {
		// export in
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 for rejected input (invalid records, an unknown input file type
or an unsupported format), 1 for anything else.
*/
package cli
