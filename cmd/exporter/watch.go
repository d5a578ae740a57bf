package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fleetdesk/exporter/pkg/cli"
)

var watchFlags struct {
	dir    string
	out    string
	format string
	once   bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Export files dropped into the inbox",
	Long: `Watch the inbox directory and export every file written into it.

A file named <base>.<format>.<json|xlsx|csv> is exported as <format> into the
output directory under <base>. Without a format segment the default format
is used. Inputs are moved to processed/ or, with a .error file holding the
reason, to failed/.

Examples:
  # Watch until interrupted
  exporter watch --dir /srv/inbox --out /srv/exports

  # Process what is there and exit (for cron jobs)
  exporter watch --once`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.dir, "dir", "d", "", "inbox directory (default from config)")
	watchCmd.Flags().StringVarP(&watchFlags.out, "out", "o", "", "output directory (default from config)")
	watchCmd.Flags().StringVarP(&watchFlags.format, "format", "f", "", "format for names without a format segment")
	watchCmd.Flags().BoolVar(&watchFlags.once, "once", false, "process existing files and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if watchFlags.dir != "" {
		cfg.Inbox.Dir = watchFlags.dir
	}
	if watchFlags.out != "" {
		cfg.Export.OutputDir = watchFlags.out
	}
	if watchFlags.format != "" {
		cfg.Export.DefaultFormat = watchFlags.format
	}
	if err := revalidate(cfg); err != nil {
		return err
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	watcher := a.NewWatcher()
	if !watchFlags.once {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", cfg.Inbox.Dir)
		if err := watcher.Run(ctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
		return nil
	}

	processed, failed, err := watcher.ProcessAll(ctx)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d file(s), %d failed\n", processed, failed)
	if failed > 0 {
		return cli.NewCommandError("watch", fmt.Errorf("%d file(s) failed, see %s", failed, watcher.FailedDir()))
	}
	return nil
}
