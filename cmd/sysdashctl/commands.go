package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sysdash/internal/models"
	"sysdash/internal/refresh"
	"sysdash/internal/session"
	"sysdash/internal/view"
)

func newSnapshotCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Show totals and the latest sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.core()
			if err != nil {
				return err
			}
			snap, err := core.View.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, snap)
			}
			printCards(out, view.BuildCards(snap, core.View.Thresholds()))
			fmt.Fprintf(out, "\nrecords %d  alerts %d  violations %d\n", snap.LogCount, snap.AlertCount, snap.ThresholdViolations)
			return nil
		},
	}
}

type logFlags struct {
	ping  string
	cpu   int
	start string
	end   string
	limit int
}

func (f *logFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ping, "ping", "All", "ping status: All, UP or DOWN")
	cmd.Flags().IntVar(&f.cpu, "cpu", 0, "minimum cpu percent in steps of 5, 0 for none")
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().IntVar(&f.limit, "limit", models.DefaultDisplayLimit, "rows to show (5-100)")
}

func (f *logFlags) filter() (models.FilterSpec, error) {
	return models.ParseFilter(f.ping, f.cpu, f.start, f.end)
}

func newLogsCmd(opts *options) *cobra.Command {
	flags := &logFlags{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List filtered system log rows with summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			core, err := opts.core()
			if err != nil {
				return err
			}
			d := core.View.Render(cmd.Context(), filter, flags.limit)
			if opts.json {
				return printJSON(cmd.OutOrStdout(), d)
			}
			return printDashboard(cmd.OutOrStdout(), d)
		},
	}
	flags.register(cmd)
	return cmd
}

func newAlertsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List the most recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.core()
			if err != nil {
				return err
			}
			alerts, err := core.View.Alerts(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), alerts)
			}
			printAlerts(cmd.OutOrStdout(), alerts)
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	flags := &logFlags{}
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw the dashboard every interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.ValidateInterval(interval); err != nil {
				return err
			}
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			core, err := opts.core()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			draw := func(ctx context.Context) {
				d := core.View.Render(ctx, filter, flags.limit)
				fmt.Fprint(out, "\033[H\033[2J")
				_ = printDashboard(out, d)
				fmt.Fprintf(out, "\nrefreshing every %s, ctrl-c to stop\n", interval)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			s, err := refresh.NewScheduler(core.Cache, interval, draw, opts.logger())
			if err != nil {
				return err
			}
			draw(ctx)
			s.Start(ctx)
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", session.DefaultInterval, "refresh interval, 10s to 300s in steps of 10s")
	return cmd
}
