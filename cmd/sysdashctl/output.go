package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"sysdash/internal/models"
	"sysdash/internal/view"
)

var (
	warnColor = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
	dimColor  = color.New(color.Faint)
	headColor = color.New(color.Bold, color.Underline)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCards(w io.Writer, cards []view.Card) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range cards {
		value := c.Value
		if c.Warn {
			value = warnColor.Sprint(value)
		}
		delta := ""
		if c.Delta != "" {
			delta = warnColor.Sprint("+" + c.Delta)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Label, value, delta)
	}
	tw.Flush()
}

func printAlerts(w io.Writer, alerts []models.AlertRecord) {
	if len(alerts) == 0 {
		okColor.Fprintln(w, view.NoAlertsMessage)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", view.AlertGlyph(a.AlertType), view.FormatTimestamp(a.Timestamp), a.AlertType, a.Message)
	}
	tw.Flush()
}

// printDashboard writes the text form of a rendered dashboard. An unavailable
// store is returned as an error so the command exits non-zero.
func printDashboard(w io.Writer, d *view.Dashboard) error {
	if d.Status == view.StatusUnavailable {
		warnColor.Fprintln(w, d.Message)
		return d.Err
	}
	printCards(w, d.Cards)

	fmt.Fprintln(w)
	headColor.Fprintf(w, "Recent alerts (%d total)\n", d.Alerts.Total)
	if len(d.Alerts.Rows) == 0 {
		okColor.Fprintln(w, d.Alerts.Message)
	}
	for _, a := range d.Alerts.Rows {
		fmt.Fprintf(w, "%s %s - %s\n", a.Glyph, a.Timestamp, a.Message)
	}

	fmt.Fprintln(w)
	headColor.Fprintln(w, "System logs")
	if d.Status == view.StatusNoData {
		warnColor.Fprintln(w, d.Message)
		return nil
	}
	dimColor.Fprintln(w, d.Table.Caption())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tCPU\tMEMORY\tDISK\tPING\tPING TIME")
	for _, r := range d.Table.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Timestamp, r.CPU, r.Memory, r.Disk, r.PingStatus, r.PingMS)
	}
	tw.Flush()

	fmt.Fprintln(w)
	headColor.Fprintln(w, "Resource usage")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tAVERAGE\tMAX\tMIN")
	for _, s := range d.Summary.Resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Metric, s.Average, s.Max, s.Min)
	}
	tw.Flush()

	fmt.Fprintln(w)
	headColor.Fprintln(w, "Ping status")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range d.Summary.Ping {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Status, p.Count, p.Percentage)
	}
	tw.Flush()
	return nil
}
