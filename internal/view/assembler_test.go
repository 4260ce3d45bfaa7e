package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysdash/internal/cache"
	"sysdash/internal/db"
	"sysdash/internal/db/dbtest"
	"sysdash/internal/models"
	"sysdash/internal/stats"
)

var base = time.Date(2024, 11, 1, 10, 0, 0, 0, time.Local)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newAssembler(path string) *Assembler {
	store := db.NewStore(path)
	return NewAssembler(store, stats.NewAggregator(store, models.DefaultThresholds), cache.New(0), 0, discard())
}

func seeded(t *testing.T) string {
	t.Helper()
	path := dbtest.NewStore(t)
	dbtest.InsertLogs(t, path,
		dbtest.Sample(base, 0, 10, models.PingUp, 12.5),
		dbtest.Sample(base, 1, 20, models.PingDown, 0),
		dbtest.Sample(base, 2, 90, models.PingUp, 30),
	)
	dbtest.InsertAlerts(t, path,
		models.AlertRecord{Timestamp: base, AlertType: models.AlertCPU, Message: "cpu high"},
		models.AlertRecord{Timestamp: base.Add(time.Minute), AlertType: "FAN", Message: "odd"},
	)
	return path
}

func TestRenderWithData(t *testing.T) {
	a := newAssembler(seeded(t))

	d := a.Render(context.Background(), models.FilterSpec{}, 5)
	require.Equal(t, StatusOK, d.Status, d.Error)
	require.NotNil(t, d.Table)
	require.NotNil(t, d.Series)
	require.NotNil(t, d.Summary)

	assert.Equal(t, 3, d.Table.Shown)
	assert.Equal(t, 3, d.Table.Filtered)
	assert.Equal(t, 3, d.Table.Total)
	assert.Equal(t, "Showing 3 of 3 filtered records (Total: 3)", d.Table.Caption())
	assert.Equal(t, int64(3), d.Table.Rows[0].ID)
	assert.Equal(t, "90.0%", d.Table.Rows[0].CPU)
	assert.Equal(t, "30.0ms", d.Table.Rows[0].PingMS)
	assert.Equal(t, "N/A", d.Table.Rows[1].PingMS)

	require.Len(t, d.Series.Resources, 3)
	assert.True(t, d.Series.Resources[0].Timestamp.Before(d.Series.Resources[2].Timestamp))
	assert.Equal(t, 10.0, d.Series.Resources[0].CPU)
	assert.True(t, d.Series.HasPing)
	require.Len(t, d.Series.Ping, 2)
	assert.Equal(t, 12.5, d.Series.Ping[0].MS)

	assert.Equal(t, SummaryRow{Metric: "CPU", Average: "40.00", Max: "90.00", Min: "10.00"}, d.Summary.Resources[0])
	require.Len(t, d.Summary.Ping, 2)
	assert.Equal(t, FrequencyRow{Status: "UP", Count: 2, Percentage: "66.7%"}, d.Summary.Ping[0])

	require.NotNil(t, d.Alerts)
	assert.Equal(t, 2, d.Alerts.Total)
	require.Len(t, d.Alerts.Rows, 2)
	assert.Equal(t, "⚪", d.Alerts.Rows[0].Glyph)
	assert.Equal(t, "FAN", d.Alerts.Rows[0].Type)
	assert.Equal(t, "🔴", d.Alerts.Rows[1].Glyph)
}

func TestRenderLimitIsClamped(t *testing.T) {
	path := dbtest.NewStore(t)
	recs := make([]models.LogRecord, 30)
	for i := range recs {
		recs[i] = dbtest.Sample(base, i, 50, models.PingUp, 10)
	}
	dbtest.InsertLogs(t, path, recs...)
	a := newAssembler(path)

	d := a.Render(context.Background(), models.FilterSpec{}, 0)
	require.Equal(t, StatusOK, d.Status)
	assert.Equal(t, models.DefaultDisplayLimit, d.Table.Shown)
	assert.Len(t, d.Table.Rows, models.DefaultDisplayLimit)
	assert.Equal(t, 30, d.Table.Filtered)
	assert.Len(t, d.Series.Resources, 30)

	d = a.Render(context.Background(), models.FilterSpec{}, 1)
	assert.Equal(t, models.MinDisplayLimit, d.Table.Shown)
}

func TestRenderNoData(t *testing.T) {
	a := newAssembler(seeded(t))
	th := 95.0

	d := a.Render(context.Background(), models.FilterSpec{CPUThreshold: &th}, 20)
	assert.Equal(t, StatusNoData, d.Status)
	assert.Equal(t, NoDataMessage, d.Message)
	assert.Nil(t, d.Table)
	assert.Nil(t, d.Series)
	assert.Nil(t, d.Summary)
	require.NotNil(t, d.Snapshot)
	assert.Equal(t, 3, d.Snapshot.LogCount, "snapshot ignores the filter")
	assert.NotEmpty(t, d.Cards)
}

func TestRenderEmptyStore(t *testing.T) {
	a := newAssembler(dbtest.NewStore(t))

	d := a.Render(context.Background(), models.FilterSpec{}, 20)
	assert.Equal(t, StatusNoData, d.Status)
	require.NotNil(t, d.Alerts)
	assert.Empty(t, d.Alerts.Rows)
	assert.Equal(t, NoAlertsMessage, d.Alerts.Message)
	assert.Equal(t, "🔴 N/A", d.Cards[3].Value)
	assert.Equal(t, "N/A", d.Cards[4].Value)
}

func TestRenderUnavailable(t *testing.T) {
	a := newAssembler(filepath.Join(t.TempDir(), "missing.db"))

	d := a.Render(context.Background(), models.FilterSpec{}, 20)
	assert.Equal(t, StatusUnavailable, d.Status)
	assert.Equal(t, UnavailableMessage, d.Message)
	assert.True(t, errors.Is(d.Err, db.ErrStoreUnavailable))
	assert.NotEmpty(t, d.Error)
	assert.Nil(t, d.Snapshot)
	assert.Nil(t, d.Cards)
	assert.Nil(t, d.Alerts)
	assert.Nil(t, d.Table)
	assert.Nil(t, d.Series)
	assert.Nil(t, d.Summary)
}

type countingStore struct {
	logs, alerts int
	recs         []models.LogRecord
}

func (s *countingStore) FetchLogs(ctx context.Context, f models.FilterSpec) ([]models.LogRecord, error) {
	s.logs++
	return s.recs, nil
}

func (s *countingStore) FetchAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	s.alerts++
	return nil, nil
}

type fixedStats struct{}

func (fixedStats) ComputeStatistics(ctx context.Context) (models.StatisticsSnapshot, error) {
	return models.EmptySnapshot(), nil
}

func (fixedStats) Thresholds() models.Thresholds { return models.DefaultThresholds }

func TestRenderServesFromCacheUntilInvalidated(t *testing.T) {
	store := &countingStore{recs: []models.LogRecord{{ID: 1, Timestamp: base, CPU: 5, PingStatus: models.PingUp}}}
	a := NewAssembler(store, fixedStats{}, cache.New(time.Minute), 0, discard())
	ctx := context.Background()

	a.Render(ctx, models.FilterSpec{}, 20)
	a.Render(ctx, models.FilterSpec{}, 50)
	assert.Equal(t, 1, store.logs)
	assert.Equal(t, 1, store.alerts)

	a.Render(ctx, models.FilterSpec{PingStatus: models.PingUp}, 20)
	assert.Equal(t, 2, store.logs, "a different filter is a different key")

	a.Cache().InvalidateAll()
	a.Render(ctx, models.FilterSpec{}, 20)
	assert.Equal(t, 3, store.logs)
	assert.Equal(t, 2, store.alerts)
}

func TestBuildCardsDeltas(t *testing.T) {
	snap := models.StatisticsSnapshot{
		ThresholdViolations: 4,
		LatestCPU:           92.5,
		LatestMemory:        50,
		LatestDisk:          90,
		LatestPingStatus:    "UP",
		LatestPingMS:        14.3,
	}
	cards := BuildCards(snap, models.DefaultThresholds)
	require.Len(t, cards, 6)

	assert.Equal(t, Card{Label: "CPU Usage", Value: "92.5%", Delta: "12.5%", Warn: true}, cards[0])
	assert.Empty(t, cards[1].Delta)
	assert.Empty(t, cards[2].Delta, "equal to the limit is not over it")
	assert.Equal(t, "🟢 UP", cards[3].Value)
	assert.False(t, cards[3].Warn)
	assert.Equal(t, "14.3ms", cards[4].Value)
	assert.Equal(t, Card{Label: "Threshold Violations", Value: "4", Delta: "4", Warn: true}, cards[5])
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "45.7%", FormatPercent(45.67))
	assert.Equal(t, "N/A", FormatPing(0))
	assert.Equal(t, "N/A", FormatPing(-1))
	assert.Equal(t, "3.5ms", FormatPing(3.5))
	assert.Equal(t, "12.35", FormatFixed2(12.345678))
	assert.Equal(t, "2024-11-01 10:00:00", FormatTimestamp(base))

	glyphs := map[models.AlertType]string{
		models.AlertCPU:    "🔴",
		models.AlertMemory: "🟠",
		models.AlertDisk:   "🟡",
		models.AlertPing:   "🔵",
		"OTHER":            "⚪",
	}
	for typ, want := range glyphs {
		assert.Equal(t, want, AlertGlyph(typ), typ)
	}
}
