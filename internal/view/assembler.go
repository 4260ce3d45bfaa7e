package view

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"sysdash/internal/cache"
	"sysdash/internal/db"
	"sysdash/internal/models"
	"sysdash/internal/stats"
)

// AlertDisplayLimit is how many of the cached alerts a page shows.
const AlertDisplayLimit = 20

// Store is the read side of the log store the assembler queries.
type Store interface {
	FetchLogs(ctx context.Context, f models.FilterSpec) ([]models.LogRecord, error)
	FetchAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error)
}

type Statistics interface {
	ComputeStatistics(ctx context.Context) (models.StatisticsSnapshot, error)
	Thresholds() models.Thresholds
}

type Assembler struct {
	store      Store
	stats      Statistics
	cache      *cache.Cache
	alertLimit int
	log        *slog.Logger
	now        func() time.Time
}

func NewAssembler(store Store, agg Statistics, c *cache.Cache, alertLimit int, logger *slog.Logger) *Assembler {
	if alertLimit <= 0 {
		alertLimit = db.DefaultAlertLimit
	}
	return &Assembler{store: store, stats: agg, cache: c, alertLimit: alertLimit, log: logger, now: time.Now}
}

func (a *Assembler) Cache() *cache.Cache { return a.cache }

func (a *Assembler) Thresholds() models.Thresholds { return a.stats.Thresholds() }

// Snapshot returns the cached global statistics.
func (a *Assembler) Snapshot(ctx context.Context) (models.StatisticsSnapshot, error) {
	return cache.Get(a.cache, "stats", 0, func() (models.StatisticsSnapshot, error) {
		return a.stats.ComputeStatistics(ctx)
	})
}

// Alerts returns the cached most recent alerts, newest first.
func (a *Assembler) Alerts(ctx context.Context) ([]models.AlertRecord, error) {
	return cache.Get(a.cache, cache.Key("alerts", a.alertLimit), 0, func() ([]models.AlertRecord, error) {
		return a.store.FetchAlerts(ctx, a.alertLimit)
	})
}

// Logs returns the cached filtered rows, newest first.
func (a *Assembler) Logs(ctx context.Context, f models.FilterSpec) ([]models.LogRecord, error) {
	return cache.Get(a.cache, cache.Key("logs", f.Key()), 0, func() ([]models.LogRecord, error) {
		return a.store.FetchLogs(ctx, f)
	})
}

// Render assembles one dashboard. It never returns nil; failures are reported
// through Status and Err.
func (a *Assembler) Render(ctx context.Context, f models.FilterSpec, limit int) *Dashboard {
	d := &Dashboard{
		Status:     StatusOK,
		Filter:     f,
		Limit:      models.ClampLimit(limit),
		Thresholds: a.stats.Thresholds(),
		RenderedAt: a.now(),
	}

	snap, err := a.Snapshot(ctx)
	if err != nil {
		return a.unavailable(d, err)
	}
	alerts, err := a.Alerts(ctx)
	if err != nil {
		return a.unavailable(d, err)
	}
	logs, err := a.Logs(ctx, f)
	if err != nil {
		return a.unavailable(d, err)
	}

	d.Snapshot = &snap
	d.Cards = BuildCards(snap, d.Thresholds)
	d.Alerts = buildAlerts(alerts, snap.AlertCount)
	if len(logs) == 0 {
		d.Status = StatusNoData
		d.Message = NoDataMessage
		return d
	}

	summary, err := buildSummary(logs)
	if err != nil {
		return a.unavailable(d, err)
	}
	d.Table = buildTable(logs, d.Limit, snap.LogCount)
	d.Series = buildSeries(logs)
	d.Summary = summary
	return d
}

func (a *Assembler) unavailable(d *Dashboard, err error) *Dashboard {
	a.log.Warn("render dashboard", "err", err)
	*d = Dashboard{
		Status:     StatusUnavailable,
		Message:    UnavailableMessage,
		Err:        err,
		Error:      err.Error(),
		Filter:     d.Filter,
		Limit:      d.Limit,
		Thresholds: d.Thresholds,
		RenderedAt: d.RenderedAt,
	}
	return d
}

// BuildCards lays out the headline metrics of a snapshot.
func BuildCards(s models.StatisticsSnapshot, th models.Thresholds) []Card {
	return []Card{
		percentCard("CPU Usage", s.LatestCPU, th.CPU),
		percentCard("Memory Usage", s.LatestMemory, th.Memory),
		percentCard("Disk Usage", s.LatestDisk, th.Disk),
		{
			Label: "Ping Status",
			Value: PingGlyph(s.LatestPingStatus) + " " + s.LatestPingStatus,
			Warn:  s.LatestPingStatus != string(models.PingUp),
		},
		{Label: "Ping Time", Value: FormatPing(s.LatestPingMS)},
		{
			Label: "Threshold Violations",
			Value: strconv.Itoa(s.ThresholdViolations),
			Delta: strconv.Itoa(s.ThresholdViolations),
			Warn:  s.ThresholdViolations > 0,
		},
	}
}

func percentCard(label string, v, limit float64) Card {
	c := Card{Label: label, Value: FormatPercent(v)}
	if over, ok := models.Exceeded(v, limit); ok {
		c.Delta = FormatPercent(over)
		c.Warn = true
	}
	return c
}

func buildAlerts(recs []models.AlertRecord, total int) *AlertView {
	n := min(len(recs), AlertDisplayLimit)
	out := &AlertView{Rows: make([]AlertRow, 0, n), Total: total}
	if n == 0 {
		out.Message = NoAlertsMessage
	}
	for _, r := range recs[:n] {
		out.Rows = append(out.Rows, AlertRow{
			ID:        r.ID,
			Glyph:     AlertGlyph(r.AlertType),
			Timestamp: FormatTimestamp(r.Timestamp),
			Type:      string(r.AlertType),
			Message:   r.Message,
		})
	}
	return out
}

func buildTable(logs []models.LogRecord, limit, total int) *Table {
	n := min(len(logs), limit)
	t := &Table{Rows: make([]Row, 0, n), Shown: n, Filtered: len(logs), Total: total}
	for _, r := range logs[:n] {
		t.Rows = append(t.Rows, Row{
			ID:         r.ID,
			Timestamp:  FormatTimestamp(r.Timestamp),
			CPU:        FormatPercent(r.CPU),
			Memory:     FormatPercent(r.Memory),
			Disk:       FormatPercent(r.Disk),
			PingStatus: string(r.PingStatus),
			PingMS:     FormatPing(r.PingMS),
		})
	}
	return t
}

func buildSeries(logs []models.LogRecord) *Series {
	asc := make([]models.LogRecord, len(logs))
	copy(asc, logs)
	sort.Slice(asc, func(i, j int) bool { return asc[i].ID < asc[j].ID })

	s := &Series{Resources: make([]ResourcePoint, 0, len(asc))}
	for _, r := range asc {
		s.Resources = append(s.Resources, ResourcePoint{Timestamp: r.Timestamp, CPU: r.CPU, Memory: r.Memory, Disk: r.Disk})
		if r.PingMeasured() {
			s.Ping = append(s.Ping, PingPoint{Timestamp: r.Timestamp, MS: r.PingMS})
		}
	}
	s.HasPing = len(s.Ping) > 0
	if !s.HasPing {
		s.Message = NoPingMessage
	}
	return s
}

func buildSummary(logs []models.LogRecord) (*Summary, error) {
	res, err := stats.Summarize(logs)
	if err != nil {
		return nil, err
	}
	freq, err := stats.PingFrequency(logs)
	if err != nil {
		return nil, err
	}
	out := &Summary{}
	for _, c := range res.Columns() {
		out.Resources = append(out.Resources, SummaryRow{
			Metric:  c.Metric,
			Average: FormatFixed2(c.Mean),
			Max:     FormatFixed2(c.Max),
			Min:     FormatFixed2(c.Min),
		})
	}
	for _, f := range freq {
		out.Ping = append(out.Ping, FrequencyRow{Status: f.Status, Count: f.Count, Percentage: FormatPercent(f.Percent)})
	}
	return out, nil
}
