package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"sysdash/internal/db"
	"sysdash/internal/models"
)

// ErrEmptySequence is returned instead of a zero or NaN aggregate.
var ErrEmptySequence = errors.New("aggregate over empty sequence")

// Source is the part of the store the aggregator reads from.
type Source interface {
	Counts(ctx context.Context, th models.Thresholds) (db.Counts, error)
	LatestLog(ctx context.Context) (models.LogRecord, bool, error)
}

type Aggregator struct {
	src        Source
	thresholds models.Thresholds
}

func NewAggregator(src Source, th models.Thresholds) *Aggregator {
	return &Aggregator{src: src, thresholds: th}
}

func (a *Aggregator) Thresholds() models.Thresholds { return a.thresholds }

// ComputeStatistics builds the global snapshot. An empty store is a valid
// state and yields zero counts with "N/A" latest fields.
func (a *Aggregator) ComputeStatistics(ctx context.Context) (models.StatisticsSnapshot, error) {
	c, err := a.src.Counts(ctx, a.thresholds)
	if err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("count rows: %w", err)
	}
	latest, ok, err := a.src.LatestLog(ctx)
	if err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("latest row: %w", err)
	}
	snap := models.EmptySnapshot()
	snap.LogCount = c.Logs
	snap.AlertCount = c.Alerts
	snap.ThresholdViolations = c.Violations
	if ok {
		snap.HasLatest = true
		snap.LatestCPU = latest.CPU
		snap.LatestMemory = latest.Memory
		snap.LatestDisk = latest.Disk
		snap.LatestPingStatus = string(latest.PingStatus)
		snap.LatestPingMS = latest.PingMS
	}
	return snap, nil
}

type ColumnSummary struct {
	Metric string  `json:"metric"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
}

type ResourceSummary struct {
	CPU    ColumnSummary `json:"cpu"`
	Memory ColumnSummary `json:"memory"`
	Disk   ColumnSummary `json:"disk"`
}

// Columns lists the summaries in display order.
func (s ResourceSummary) Columns() []ColumnSummary {
	return []ColumnSummary{s.CPU, s.Memory, s.Disk}
}

func Summarize(recs []models.LogRecord) (ResourceSummary, error) {
	if len(recs) == 0 {
		return ResourceSummary{}, ErrEmptySequence
	}
	cpu := make(mstats.Float64Data, len(recs))
	mem := make(mstats.Float64Data, len(recs))
	disk := make(mstats.Float64Data, len(recs))
	for i, r := range recs {
		cpu[i], mem[i], disk[i] = r.CPU, r.Memory, r.Disk
	}
	var out ResourceSummary
	var err error
	if out.CPU, err = summarizeColumn("CPU", cpu); err != nil {
		return ResourceSummary{}, err
	}
	if out.Memory, err = summarizeColumn("Memory", mem); err != nil {
		return ResourceSummary{}, err
	}
	if out.Disk, err = summarizeColumn("Disk", disk); err != nil {
		return ResourceSummary{}, err
	}
	return out, nil
}

func summarizeColumn(name string, data mstats.Float64Data) (ColumnSummary, error) {
	mean, err := data.Mean()
	if err != nil {
		return ColumnSummary{}, fmt.Errorf("%s mean: %w", name, err)
	}
	hi, err := data.Max()
	if err != nil {
		return ColumnSummary{}, fmt.Errorf("%s max: %w", name, err)
	}
	lo, err := data.Min()
	if err != nil {
		return ColumnSummary{}, fmt.Errorf("%s min: %w", name, err)
	}
	return ColumnSummary{Metric: name, Mean: mean, Max: hi, Min: lo}, nil
}

type Frequency struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// PingFrequency counts each distinct ping status. Percentages are relative to
// len(recs), most frequent first.
func PingFrequency(recs []models.LogRecord) ([]Frequency, error) {
	if len(recs) == 0 {
		return nil, ErrEmptySequence
	}
	counts := map[string]int{}
	for _, r := range recs {
		counts[string(r.PingStatus)]++
	}
	out := make([]Frequency, 0, len(counts))
	total := float64(len(recs))
	for status, n := range counts {
		out = append(out, Frequency{Status: status, Count: n, Percent: float64(n) / total * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}
