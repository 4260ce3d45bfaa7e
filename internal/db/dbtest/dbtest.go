// Package dbtest builds throwaway log stores the way the collector lays them out.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sysdash/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

const Schema = `
CREATE TABLE IF NOT EXISTS system_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	cpu REAL,
	memory REAL,
	disk REAL,
	ping_status TEXT,
	ping_ms REAL
);
CREATE TABLE IF NOT EXISTS alerts_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	alert_type TEXT,
	message TEXT
);`

// NewStore creates an empty store with the collector schema and returns its path.
func NewStore(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.db")
	Exec(t, path, Schema)
	return path
}

// Exec runs raw SQL against the store with a writable connection.
func Exec(t testing.TB, path, stmt string, args ...any) {
	t.Helper()
	conn := open(t, path)
	defer conn.Close()
	if _, err := conn.Exec(stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

// InsertLogs writes rows in order; a zero ID lets SQLite assign the next one.
func InsertLogs(t testing.TB, path string, recs ...models.LogRecord) {
	t.Helper()
	conn := open(t, path)
	defer conn.Close()
	for _, r := range recs {
		var id any
		if r.ID != 0 {
			id = r.ID
		}
		var pingMS any
		if r.PingMS > 0 {
			pingMS = r.PingMS
		}
		_, err := conn.Exec(`INSERT INTO system_log (id,timestamp,cpu,memory,disk,ping_status,ping_ms) VALUES (?,?,?,?,?,?,?)`,
			id, r.Timestamp.Format(timestampLayout), r.CPU, r.Memory, r.Disk, string(r.PingStatus), pingMS)
		if err != nil {
			t.Fatalf("insert log: %v", err)
		}
	}
}

func InsertAlerts(t testing.TB, path string, alerts ...models.AlertRecord) {
	t.Helper()
	conn := open(t, path)
	defer conn.Close()
	for _, a := range alerts {
		var id any
		if a.ID != 0 {
			id = a.ID
		}
		_, err := conn.Exec(`INSERT INTO alerts_log (id,timestamp,alert_type,message) VALUES (?,?,?,?)`,
			id, a.Timestamp.Format(timestampLayout), string(a.AlertType), a.Message)
		if err != nil {
			t.Fatalf("insert alert: %v", err)
		}
	}
}

// Sample returns a row stamped base+i minutes with the given cpu value.
func Sample(base time.Time, i int, cpu float64, status models.PingStatus, pingMS float64) models.LogRecord {
	return models.LogRecord{
		Timestamp:  base.Add(time.Duration(i) * time.Minute),
		CPU:        cpu,
		Memory:     40,
		Disk:       50,
		PingStatus: status,
		PingMS:     pingMS,
	}
}

func open(t testing.TB, path string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return conn
}
