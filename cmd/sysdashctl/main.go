package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sysdash/internal/app"
	"sysdash/internal/config"
	"sysdash/internal/logging"
)

type options struct {
	dbPath   string
	json     bool
	noColor  bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "sysdashctl",
		Short:        "Query the system monitor log store from a terminal",
		SilenceUsage: true,
	}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.noColor {
			color.NoColor = true
		}
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the log store (default from APP_DB_PATH or log.db)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newSnapshotCmd(opts),
		newLogsCmd(opts),
		newAlertsCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// core loads configuration the same way the server does, then applies flags.
func (o *options) core() (*app.Core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return app.NewCore(cfg, o.logger(), nil), nil
}

func (o *options) logger() *slog.Logger {
	return logging.NewWithWriter(os.Stderr, o.logLevel)
}
