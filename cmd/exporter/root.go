package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"fleetdesk/exporter/internal/app"
	"fleetdesk/exporter/pkg/cli"
	"fleetdesk/exporter/pkg/config"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "exporter.yaml"

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Fleet dashboard record exporter",
	Long: `Exporter converts lists of dashboard records (bookings, vehicles,
customers, payments) into CSV, JSON and PDF documents.

It can be used as a one-shot command, as an HTTP API that returns the
document as a download, or as a drop-folder service that exports every
file written into its inbox.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path (YAML or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig loads the configuration with environment overrides. The
// default config file is optional; an explicit --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if f := cmd.Flag("config"); f == nil || !f.Changed {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// revalidate checks the configuration again after flag overrides and makes
// it the global configuration.
func revalidate(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.SetConfig(cfg)
	return nil
}

func newApp(cmd *cobra.Command, cfg *config.Config) (*app.App, error) {
	a, err := app.New(cfg, app.Options{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		LogWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cli.NewCommandError(cmd.Name(), err)
	}
	return a, nil
}
