package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fleetdesk/exporter/pkg/cli"
	"fleetdesk/exporter/pkg/config"
	"fleetdesk/exporter/pkg/history/retention"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	inbox         bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export API",
	Long: `Start the HTTP export API.

Besides the API, serve runs the history retention schedule and, when
inbox.enabled is set or --inbox is given, the drop-folder watcher. All of
them stop together on SIGINT or SIGTERM.

Examples:
  # Start with the default config
  exporter serve

  # Override listen address and enable the inbox
  exporter serve --listen 0.0.0.0:8080 --inbox

  # Validate config without starting anything
  exporter serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.inbox, "inbox", false, "also run the inbox watcher")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.inbox {
		cfg.Inbox.Enabled = true
	}
	if err := revalidate(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	a, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	srv := a.NewServer()
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if a.Store != nil {
		pruner, err := a.NewPruner()
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		scheduler := retention.NewScheduler(pruner)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	if cfg.Inbox.Enabled {
		watcher := a.NewWatcher()
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	printBanner(out, cfg)

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(w, "Fleetdesk Exporter v%s\n", Version)
	fmt.Fprintf(w, "✓ Export API: %s://%s/v1/exports/{format}\n", scheme, cfg.Server.ListenAddress)
	fmt.Fprintf(w, "✓ Health endpoint: %s://%s/healthz\n", scheme, cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	if cfg.Server.Auth.Enabled {
		fmt.Fprintf(w, "✓ API key auth: %d key(s)\n", len(cfg.Server.Auth.Keys))
	}
	if cfg.History.Enabled {
		fmt.Fprintf(w, "✓ History: %s (%s)\n", cfg.History.Backend, cfg.History.Retention.Schedule)
	}
	if cfg.Inbox.Enabled {
		fmt.Fprintf(w, "✓ Inbox: %s -> %s\n", cfg.Inbox.Dir, cfg.Export.OutputDir)
	}
	if cfg.Notify.Enabled {
		fmt.Fprintf(w, "✓ Notifications: %s\n", cfg.Notify.WebhookURL)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
