package view

import (
	"fmt"
	"time"

	"sysdash/internal/models"
)

// TimestampLayout is how the collector writes timestamps, and how they are shown.
const TimestampLayout = "2006-01-02 15:04:05"

func FormatPercent(v float64) string { return fmt.Sprintf("%.1f%%", v) }

// FormatPing renders a latency sample; zero or negative means it was never measured.
func FormatPing(ms float64) string {
	if ms <= 0 {
		return models.NotAvailable
	}
	return fmt.Sprintf("%.1fms", ms)
}

func FormatFixed2(v float64) string { return fmt.Sprintf("%.2f", v) }

func FormatTimestamp(t time.Time) string { return t.Format(TimestampLayout) }

func AlertGlyph(t models.AlertType) string {
	switch t {
	case models.AlertCPU:
		return "🔴"
	case models.AlertMemory:
		return "🟠"
	case models.AlertDisk:
		return "🟡"
	case models.AlertPing:
		return "🔵"
	default:
		return "⚪"
	}
}

func PingGlyph(status string) string {
	if status == string(models.PingUp) {
		return "🟢"
	}
	return "🔴"
}
