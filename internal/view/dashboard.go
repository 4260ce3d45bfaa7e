package view

import (
	"fmt"
	"time"

	"sysdash/internal/models"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusNoData      Status = "no_data"
	StatusUnavailable Status = "unavailable"
)

const (
	NoDataMessage      = "No data available matching the current filters."
	NoPingMessage      = "No successful ping data available for current filters."
	NoAlertsMessage    = "No alerts triggered. All systems operating normally."
	UnavailableMessage = "Error loading data. Make sure the log store exists and the collector has run at least once."
)

// Dashboard is everything a presentation layer needs for one page. Sections a
// status does not produce are nil.
type Dashboard struct {
	Status     Status                     `json:"status"`
	Message    string                     `json:"message,omitempty"`
	Err        error                      `json:"-"`
	Error      string                     `json:"error,omitempty"`
	Filter     models.FilterSpec          `json:"filter"`
	Limit      int                        `json:"limit"`
	Thresholds models.Thresholds          `json:"thresholds"`
	Snapshot   *models.StatisticsSnapshot `json:"snapshot,omitempty"`
	Cards      []Card                     `json:"cards,omitempty"`
	Alerts     *AlertView                 `json:"alerts,omitempty"`
	Table      *Table                     `json:"table,omitempty"`
	Series     *Series                    `json:"series,omitempty"`
	Summary    *Summary                   `json:"summary,omitempty"`
	RenderedAt time.Time                  `json:"rendered_at"`
}

// Card is one headline metric. Delta is set only when the value is over its limit.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
	Warn  bool   `json:"warn"`
}

type Row struct {
	ID         int64  `json:"id"`
	Timestamp  string `json:"timestamp"`
	CPU        string `json:"cpu"`
	Memory     string `json:"memory"`
	Disk       string `json:"disk"`
	PingStatus string `json:"ping_status"`
	PingMS     string `json:"ping_ms"`
}

type Table struct {
	Rows     []Row `json:"rows"`
	Shown    int   `json:"shown"`
	Filtered int   `json:"filtered"`
	Total    int   `json:"total"`
}

func (t *Table) Caption() string {
	return fmt.Sprintf("Showing %d of %d filtered records (Total: %d)", t.Shown, t.Filtered, t.Total)
}

type ResourcePoint struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       float64   `json:"cpu"`
	Memory    float64   `json:"memory"`
	Disk      float64   `json:"disk"`
}

type PingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	MS        float64   `json:"ms"`
}

// Series holds chart points oldest first.
type Series struct {
	Resources []ResourcePoint `json:"resources"`
	Ping      []PingPoint     `json:"ping"`
	HasPing   bool            `json:"has_ping"`
	Message   string          `json:"message,omitempty"`
}

type SummaryRow struct {
	Metric  string `json:"metric"`
	Average string `json:"average"`
	Max     string `json:"max"`
	Min     string `json:"min"`
}

type FrequencyRow struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type Summary struct {
	Resources []SummaryRow   `json:"resources"`
	Ping      []FrequencyRow `json:"ping"`
}

type AlertRow struct {
	ID        int64  `json:"id"`
	Glyph     string `json:"glyph"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

type AlertView struct {
	Rows    []AlertRow `json:"rows"`
	Total   int        `json:"total"`
	Message string     `json:"message,omitempty"`
}
