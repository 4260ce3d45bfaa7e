package web

import (
	"strconv"
	"strings"

	"sysdash/internal/view"
)

const (
	chartWidth  = 800.0
	chartHeight = 200.0
)

// resourceLine returns SVG polyline points for one percentage metric.
func resourceLine(points []view.ResourcePoint, metric string) string {
	vals := make([]float64, len(points))
	for i, p := range points {
		switch metric {
		case "cpu":
			vals[i] = p.CPU
		case "memory":
			vals[i] = p.Memory
		case "disk":
			vals[i] = p.Disk
		}
	}
	return polyline(vals, 100)
}

// pingLine scales latency samples against the slowest one.
func pingLine(points []view.PingPoint) string {
	vals := make([]float64, len(points))
	top := 0.0
	for i, p := range points {
		vals[i] = p.MS
		top = max(top, p.MS)
	}
	return polyline(vals, top)
}

func polyline(vals []float64, top float64) string {
	if len(vals) == 0 || top <= 0 {
		return ""
	}
	step := 0.0
	if len(vals) > 1 {
		step = chartWidth / float64(len(vals)-1)
	}
	var b strings.Builder
	for i, v := range vals {
		y := chartHeight - min(max(v, 0), top)/top*chartHeight
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(i)*step, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
	}
	return b.String()
}
