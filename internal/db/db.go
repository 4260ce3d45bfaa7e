package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStoreUnavailable matches every failure to open or read the store:
// missing file, unreadable file, or a schema that is missing or malformed.
var ErrStoreUnavailable = errors.New("store unavailable")

type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Open returns a read-only handle on an existing store. It never creates the file.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat store: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_query_only=1&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var expectedColumns = map[string][]string{
	"system_log": {"id", "timestamp", "cpu", "memory", "disk", "ping_status", "ping_ms"},
	"alerts_log": {"id", "timestamp", "alert_type", "message"},
}

func checkSchema(ctx context.Context, db *sql.DB) error {
	for table, want := range expectedColumns {
		rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
		if err != nil {
			return err
		}
		have := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return err
			}
			have[strings.ToLower(name)] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
		if len(have) == 0 {
			return fmt.Errorf("missing table %s", table)
		}
		var missing []string
		for _, col := range want {
			if !have[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s missing columns: %s", table, strings.Join(missing, ","))
		}
	}
	return nil
}
