package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"sysdash/internal/models"
)

const DefaultAlertLimit = 50

// Store reads the collector's log store. Each call opens its own read-only
// connection, runs a single statement and closes the connection again.
type Store struct {
	path string
}

type Counts struct {
	Logs       int
	Alerts     int
	Violations int
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) withConn(ctx context.Context, op string, fn func(*sql.DB) error) error {
	conn, err := Open(s.path)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	defer conn.Close()
	if err := fn(conn); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

func (s *Store) fail(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &StoreError{Op: op, Path: s.path, Err: err}
}

func (s *Store) FetchLogs(ctx context.Context, f models.FilterSpec) ([]models.LogRecord, error) {
	clauses, args := buildLogFilters(f)
	query := fmt.Sprintf(`SELECT id,timestamp,cpu,memory,disk,ping_status,ping_ms FROM system_log WHERE %s ORDER BY id DESC`, strings.Join(clauses, " AND "))
	var out []models.LogRecord
	err := s.withConn(ctx, "fetch logs", func(conn *sql.DB) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanLog(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func buildLogFilters(f models.FilterSpec) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.PingStatus != "" {
		clauses = append(clauses, "ping_status = ?")
		args = append(args, string(f.PingStatus))
	}
	if f.DateRange != nil {
		clauses = append(clauses, "DATE(timestamp) BETWEEN ? AND ?")
		args = append(args, f.DateRange.Start.Format(models.DateLayout), f.DateRange.End.Format(models.DateLayout))
	}
	if f.CPUThreshold != nil {
		clauses = append(clauses, "cpu >= ?")
		args = append(args, *f.CPUThreshold)
	}
	return clauses, args
}

func (s *Store) FetchAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	out := make([]models.AlertRecord, 0, limit)
	err := s.withConn(ctx, "fetch alerts", func(conn *sql.DB) error {
		rows, err := conn.QueryContext(ctx, `SELECT id,timestamp,alert_type,message FROM alerts_log ORDER BY id DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var a models.AlertRecord
			var ts, kind string
			var msg sql.NullString
			if err := rows.Scan(&a.ID, &ts, &kind, &msg); err != nil {
				return err
			}
			if a.Timestamp, err = parseTimestamp(ts); err != nil {
				return fmt.Errorf("alert %d: %w", a.ID, err)
			}
			a.AlertType = models.AlertType(kind)
			a.Message = msg.String
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Counts evaluates the global totals in one statement, ignoring any filter.
func (s *Store) Counts(ctx context.Context, th models.Thresholds) (Counts, error) {
	var c Counts
	err := s.withConn(ctx, "count rows", func(conn *sql.DB) error {
		return conn.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM system_log),
			(SELECT COUNT(*) FROM alerts_log),
			(SELECT COUNT(*) FROM system_log WHERE cpu > ? OR memory > ? OR disk > ?)`,
			th.CPU, th.Memory, th.Disk).Scan(&c.Logs, &c.Alerts, &c.Violations)
	})
	return c, err
}

// LatestLog returns the row with the highest id. ok is false on an empty table.
func (s *Store) LatestLog(ctx context.Context) (rec models.LogRecord, ok bool, err error) {
	err = s.withConn(ctx, "latest log", func(conn *sql.DB) error {
		row := conn.QueryRowContext(ctx, `SELECT id,timestamp,cpu,memory,disk,ping_status,ping_ms FROM system_log ORDER BY id DESC LIMIT 1`)
		r, scanErr := scanLog(row)
		if scanErr == sql.ErrNoRows {
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		rec, ok = r, true
		return nil
	})
	if err != nil {
		return models.LogRecord{}, false, err
	}
	return rec, ok, nil
}

// Ping opens the store and verifies both tables carry the expected columns.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, "ping", func(conn *sql.DB) error {
		return checkSchema(ctx, conn)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (models.LogRecord, error) {
	var rec models.LogRecord
	var ts string
	var status sql.NullString
	var pingMS sql.NullFloat64
	if err := row.Scan(&rec.ID, &ts, &rec.CPU, &rec.Memory, &rec.Disk, &status, &pingMS); err != nil {
		return models.LogRecord{}, err
	}
	t, err := parseTimestamp(ts)
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("log %d: %w", rec.ID, err)
	}
	rec.Timestamp = t
	rec.PingStatus = models.PingStatus(status.String)
	if pingMS.Valid {
		rec.PingMS = pingMS.Float64
	}
	return rec, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := dateparse.ParseLocal(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
