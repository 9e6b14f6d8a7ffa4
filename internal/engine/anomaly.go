package engine

import (
	"math"

	"github.com/vigil-app/vigil/pkg/types"
)

// AnomalySeverity grades how far a value sits from its recent history.
type AnomalySeverity string

const (
	SeverityWarning  AnomalySeverity = "warning"  // 2 < z <= 3
	SeverityCritical AnomalySeverity = "critical" // z > 3
)

// AnomalyFinding reports a statistically unusual newest observation of one
// metric. At most one finding is produced per metric per invocation.
type AnomalyFinding struct {
	Metric   string
	Latest   float64
	Mean     float64 // mean of the history (all points except the newest)
	StdDev   float64 // population standard deviation of the history
	ZScore   float64 // +Inf when the history is flat and the latest deviates
	Severity AnomalySeverity
}

// DetectAnomaly examines the most recent observations of one metric, newest
// first, and reports whether the newest value is statistically unusual
// relative to the points before it.
//
// Mean and population standard deviation are computed over all numeric points
// except the newest; the z-score compares the newest point against that
// history. Fewer than 3 numeric points yields no finding. A series where
// every value is identical yields no finding. A perfectly flat history with a
// deviating newest point is maximally anomalous and classifies as critical.
//
// Pure function: never mutates its input and touches no stored state.
func DetectAnomaly(metric string, newestFirst []types.MetricPoint) *AnomalyFinding {
	values := types.NumericValues(newestFirst)
	if len(values) < 3 {
		return nil
	}

	latest := values[0]
	history := values[1:]

	mean := 0.0
	for _, v := range history {
		mean += v
	}
	mean /= float64(len(history))

	variance := 0.0
	for _, v := range history {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(history))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		if latest == mean {
			return nil
		}
		return &AnomalyFinding{
			Metric:   metric,
			Latest:   latest,
			Mean:     mean,
			StdDev:   0,
			ZScore:   math.Inf(1),
			Severity: SeverityCritical,
		}
	}

	z := math.Abs(latest-mean) / stdDev
	switch {
	case z > 3:
		return &AnomalyFinding{Metric: metric, Latest: latest, Mean: mean, StdDev: stdDev, ZScore: z, Severity: SeverityCritical}
	case z > 2:
		return &AnomalyFinding{Metric: metric, Latest: latest, Mean: mean, StdDev: stdDev, ZScore: z, Severity: SeverityWarning}
	default:
		return nil
	}
}
