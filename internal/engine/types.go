// Package engine implements the detection, scoring, memory, and composition
// logic of the Vigil monitoring engine. Detectors are pure functions over
// gathered data; the orchestrator wires them to storage and runs them
// concurrently per pass.
package engine

import "time"

// Default detection parameters.
const (
	DefaultAnomalyWindow   = 20 // observations per metric fed to the detector
	DefaultSpikeThreshold  = 3  // outbound events to one contact in one day
	DefaultSpikeWindowDays = 7  // trailing window scanned for spikes
	DefaultForecastHorizon = 3  // points projected past the series end
)

// DetectionConfig tunes the statistical detectors. The zero value is not
// usable; construct with DefaultDetectionConfig and override fields.
type DetectionConfig struct {
	// AnomalyWindow is the number of recent observations per metric the
	// anomaly detector examines.
	AnomalyWindow int

	// SpikeThreshold is the minimum outbound events to a single contact in
	// one calendar day that counts as a communication spike.
	SpikeThreshold int

	// SpikeWindow is the trailing period scanned for spikes.
	SpikeWindow time.Duration

	// ForecastHorizon is the number of future points the forecaster projects.
	ForecastHorizon int
}

// DefaultDetectionConfig returns the stock detection parameters.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		AnomalyWindow:   DefaultAnomalyWindow,
		SpikeThreshold:  DefaultSpikeThreshold,
		SpikeWindow:     DefaultSpikeWindowDays * 24 * time.Hour,
		ForecastHorizon: DefaultForecastHorizon,
	}
}

// normalize fills non-positive fields with defaults so a partially built
// config never disables a detector by accident.
func (c *DetectionConfig) normalize() {
	if c.AnomalyWindow <= 0 {
		c.AnomalyWindow = DefaultAnomalyWindow
	}
	if c.SpikeThreshold <= 0 {
		c.SpikeThreshold = DefaultSpikeThreshold
	}
	if c.SpikeWindow <= 0 {
		c.SpikeWindow = DefaultSpikeWindowDays * 24 * time.Hour
	}
	if c.ForecastHorizon <= 0 {
		c.ForecastHorizon = DefaultForecastHorizon
	}
}
