package types

import (
	"strconv"
	"time"
)

// MetricPoint is a single time-stamped observation of a user metric.
// Points are append-only: once written they are never mutated. Values are
// stored as strings because upstream ingestion accepts free-form input; only
// float-parseable values participate in statistical computation.
type MetricPoint struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Metric    string                 `json:"metric"` // Metric name (e.g., "net_worth", "sleep_hours")
	Value     string                 `json:"value"`  // Float-parseable observation value
	Category  string                 `json:"category,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Float parses the point's value as a float64. The second return value is
// false when the value is not numeric; such points are excluded from all
// statistical computation.
func (p *MetricPoint) Float() (float64, bool) {
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumericValues extracts the parseable float values from a slice of points,
// preserving order. Non-numeric values are dropped silently.
func NumericValues(points []MetricPoint) []float64 {
	values := make([]float64, 0, len(points))
	for i := range points {
		if v, ok := points[i].Float(); ok {
			values = append(values, v)
		}
	}
	return values
}
