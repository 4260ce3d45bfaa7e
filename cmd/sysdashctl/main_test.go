package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysdash/internal/db/dbtest"
	"sysdash/internal/models"
	"sysdash/internal/view"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	t.Setenv("APP_CONFIG_FILE", "")
	color.NoColor = true
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seeded(t *testing.T) string {
	t.Helper()
	base := time.Date(2024, 11, 1, 10, 0, 0, 0, time.Local)
	path := dbtest.NewStore(t)
	dbtest.InsertLogs(t, path,
		dbtest.Sample(base, 0, 30, models.PingUp, 12.5),
		dbtest.Sample(base, 1, 95, models.PingDown, 0),
	)
	dbtest.InsertAlerts(t, path, models.AlertRecord{Timestamp: base, AlertType: models.AlertDisk, Message: "disk nearly full"})
	return path
}

func TestSnapshotCommand(t *testing.T) {
	out, err := run(t, "snapshot", "--db", seeded(t))
	require.NoError(t, err)
	assert.Contains(t, out, "CPU Usage")
	assert.Contains(t, out, "+15.0%")
	assert.Contains(t, out, "records 2  alerts 1  violations 1")
}

func TestLogsCommandJSON(t *testing.T) {
	out, err := run(t, "logs", "--db", seeded(t), "--ping", "DOWN", "--json")
	require.NoError(t, err)
	var d view.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, view.StatusOK, d.Status)
	require.NotNil(t, d.Table)
	assert.Equal(t, 1, d.Table.Filtered)
}

func TestLogsCommandText(t *testing.T) {
	out, err := run(t, "logs", "--db", seeded(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 2 filtered records (Total: 2)")
	assert.Contains(t, out, "🟡")
	assert.Contains(t, out, "Resource usage")

	out, err = run(t, "logs", "--db", seeded(t), "--cpu", "100")
	require.NoError(t, err)
	assert.Contains(t, out, view.NoDataMessage)
}

func TestLogsCommandRejectsBadFilter(t *testing.T) {
	_, err := run(t, "logs", "--db", seeded(t), "--start", "2024-11-01")
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestLogsCommandRejectsOffStepThreshold(t *testing.T) {
	_, err := run(t, "logs", "--db", seeded(t), "--cpu", "33")
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestAlertsCommand(t *testing.T) {
	out, err := run(t, "alerts", "--db", seeded(t))
	require.NoError(t, err)
	assert.Contains(t, out, "disk nearly full")
}

func TestMissingStoreFails(t *testing.T) {
	out, err := run(t, "logs", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
	assert.Contains(t, out, view.UnavailableMessage)
}

func TestWatchRejectsBadInterval(t *testing.T) {
	_, err := run(t, "watch", "--db", seeded(t), "--interval", "7s")
	assert.Error(t, err)
}
