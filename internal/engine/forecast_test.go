package engine

import (
	"math"
	"testing"
)

func TestForecastSeriesLinear(t *testing.T) {
	f := ForecastSeries("revenue", []float64{1, 2, 3, 4, 5}, 3)
	if f == nil {
		t.Fatal("expected a forecast")
	}
	if math.Abs(f.Slope-1) > 1e-9 {
		t.Errorf("slope = %f, want 1", f.Slope)
	}
	if math.Abs(f.Intercept) > 1e-9 {
		t.Errorf("intercept = %f, want 0", f.Intercept)
	}
	want := []float64{6, 7, 8}
	if len(f.Values) != len(want) {
		t.Fatalf("got %d forecast values, want %d", len(f.Values), len(want))
	}
	for i, w := range want {
		if math.Abs(f.Values[i]-w) > 1e-9 {
			t.Errorf("forecast[%d] = %f, want %f", i, f.Values[i], w)
		}
	}
}

func TestForecastSeriesInsufficientData(t *testing.T) {
	if f := ForecastSeries("m", []float64{1, 2}, 3); f != nil {
		t.Errorf("expected no forecast for 2 points, got %+v", f)
	}
	if f := ForecastSeries("m", nil, 3); f != nil {
		t.Errorf("expected no forecast for empty series, got %+v", f)
	}
}

func TestForecastSeriesFlat(t *testing.T) {
	f := ForecastSeries("m", []float64{7, 7, 7, 7}, 2)
	if f == nil {
		t.Fatal("expected a forecast")
	}
	if math.Abs(f.Slope) > 1e-9 {
		t.Errorf("slope = %f, want 0", f.Slope)
	}
	for i, v := range f.Values {
		if math.Abs(v-7) > 1e-9 {
			t.Errorf("forecast[%d] = %f, want 7", i, v)
		}
	}
}

func TestForecastSeriesDefaultHorizon(t *testing.T) {
	f := ForecastSeries("m", []float64{1, 2, 3}, 0)
	if f == nil {
		t.Fatal("expected a forecast")
	}
	if len(f.Values) != DefaultForecastHorizon {
		t.Errorf("got %d values, want default horizon %d", len(f.Values), DefaultForecastHorizon)
	}
}
