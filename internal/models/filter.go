package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// CPUStep is the granularity of the cpu threshold control.
const CPUStep = 5

const (
	MinDisplayLimit     = 5
	MaxDisplayLimit     = 100
	DefaultDisplayLimit = 20
)

var ErrInvalidFilter = errors.New("invalid filter")

// DateRange is inclusive on both ends and compared at day granularity.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type FilterSpec struct {
	PingStatus   PingStatus `json:"ping_status,omitempty"`
	DateRange    *DateRange `json:"date_range,omitempty"`
	CPUThreshold *float64   `json:"cpu_threshold,omitempty"`
}

// Key encodes every field that changes the query result.
func (f FilterSpec) Key() string {
	var b strings.Builder
	b.WriteString("ping=")
	b.WriteString(string(f.PingStatus))
	b.WriteString(";dates=")
	if f.DateRange != nil {
		b.WriteString(f.DateRange.Start.Format(DateLayout))
		b.WriteString("..")
		b.WriteString(f.DateRange.End.Format(DateLayout))
	}
	b.WriteString(";cpu>=")
	if f.CPUThreshold != nil {
		b.WriteString(strconv.FormatFloat(*f.CPUThreshold, 'f', -1, 64))
	}
	return b.String()
}

// Matches applies the same predicates as the store query.
func (f FilterSpec) Matches(r LogRecord) bool {
	if f.PingStatus != "" && r.PingStatus != f.PingStatus {
		return false
	}
	if f.DateRange != nil {
		day := r.Timestamp.Format(DateLayout)
		if day < f.DateRange.Start.Format(DateLayout) || day > f.DateRange.End.Format(DateLayout) {
			return false
		}
	}
	if f.CPUThreshold != nil && r.CPU < *f.CPUThreshold {
		return false
	}
	return true
}

// ParseFilter maps the dashboard controls onto a FilterSpec. "All" or an empty
// ping value, a zero cpu threshold and empty dates leave their dimension open.
func ParseFilter(ping string, cpu int, start, end string) (FilterSpec, error) {
	var f FilterSpec
	switch p := strings.ToUpper(strings.TrimSpace(ping)); p {
	case "", "ALL":
	case string(PingUp), string(PingDown):
		f.PingStatus = PingStatus(p)
	default:
		return FilterSpec{}, fmt.Errorf("%w: ping status %q", ErrInvalidFilter, ping)
	}

	if cpu < 0 || cpu > 100 {
		return FilterSpec{}, fmt.Errorf("%w: cpu threshold %d outside 0..100", ErrInvalidFilter, cpu)
	}
	if cpu%CPUStep != 0 {
		return FilterSpec{}, fmt.Errorf("%w: cpu threshold %d is not a multiple of %d", ErrInvalidFilter, cpu, CPUStep)
	}
	if cpu > 0 {
		th := float64(cpu)
		f.CPUThreshold = &th
	}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return f, nil
	}
	if start == "" || end == "" {
		return FilterSpec{}, fmt.Errorf("%w: date range needs both start and end", ErrInvalidFilter)
	}
	from, err := time.ParseInLocation(DateLayout, start, time.Local)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("%w: start date: %v", ErrInvalidFilter, err)
	}
	to, err := time.ParseInLocation(DateLayout, end, time.Local)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("%w: end date: %v", ErrInvalidFilter, err)
	}
	if from.After(to) {
		return FilterSpec{}, fmt.Errorf("%w: start date %s after end date %s", ErrInvalidFilter, start, end)
	}
	f.DateRange = &DateRange{Start: from, End: to}
	return f, nil
}

func ClampLimit(n int) int {
	if n == 0 {
		return DefaultDisplayLimit
	}
	if n < MinDisplayLimit {
		return MinDisplayLimit
	}
	if n > MaxDisplayLimit {
		return MaxDisplayLimit
	}
	return n
}
