package models

import "time"

type PingStatus string

const (
	PingUp   PingStatus = "UP"
	PingDown PingStatus = "DOWN"
)

type AlertType string

const (
	AlertCPU    AlertType = "CPU"
	AlertMemory AlertType = "MEMORY"
	AlertDisk   AlertType = "DISK"
	AlertPing   AlertType = "PING"
)

// NotAvailable is shown in place of a value that was never measured.
const NotAvailable = "N/A"

type LogRecord struct {
	ID         int64      `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	CPU        float64    `json:"cpu"`
	Memory     float64    `json:"memory"`
	Disk       float64    `json:"disk"`
	PingStatus PingStatus `json:"ping_status"`
	PingMS     float64    `json:"ping_ms"`
}

// PingMeasured reports whether the row carries a usable latency sample.
func (r LogRecord) PingMeasured() bool { return r.PingMS > 0 }

type AlertRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AlertType AlertType `json:"alert_type"`
	Message   string    `json:"message"`
}

type StatisticsSnapshot struct {
	LogCount            int     `json:"log_count"`
	AlertCount          int     `json:"alert_count"`
	ThresholdViolations int     `json:"threshold_violations"`
	HasLatest           bool    `json:"has_latest"`
	LatestCPU           float64 `json:"latest_cpu"`
	LatestMemory        float64 `json:"latest_memory"`
	LatestDisk          float64 `json:"latest_disk"`
	LatestPingStatus    string  `json:"latest_ping_status"`
	LatestPingMS        float64 `json:"latest_ping_ms"`
}

// EmptySnapshot is the snapshot of a store without any rows.
func EmptySnapshot() StatisticsSnapshot {
	return StatisticsSnapshot{LatestPingStatus: NotAvailable}
}

// Thresholds are the fixed per-metric limits a row is checked against.
type Thresholds struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
}

var DefaultThresholds = Thresholds{CPU: 80, Memory: 85, Disk: 90}

// Violated uses strict comparison on every metric, so a value equal to its limit is fine.
func (t Thresholds) Violated(r LogRecord) bool {
	return r.CPU > t.CPU || r.Memory > t.Memory || r.Disk > t.Disk
}

// Exceeded returns how far v is above limit, if it is above at all.
func Exceeded(v, limit float64) (float64, bool) {
	if v > limit {
		return v - limit, true
	}
	return 0, false
}
