package engine

// Forecast is a linear extrapolation of a metric's near-future values.
// Forecasts are directional estimates only; no confidence interval is
// attached.
type Forecast struct {
	Metric    string
	Slope     float64
	Intercept float64
	Values    []float64 // projected values for positions n+1 .. n+horizon
}

// ForecastSeries fits an ordinary least-squares line to the series against
// index positions 1..n and projects horizon points past the end. The input
// must be ordered oldest to newest. Fewer than 3 values yields nil rather
// than an error: insufficient data is a no-forecast result, not a failure.
func ForecastSeries(metric string, oldestFirst []float64, horizon int) *Forecast {
	n := len(oldestFirst)
	if n < 3 {
		return nil
	}
	if horizon <= 0 {
		horizon = DefaultForecastHorizon
	}

	// OLS over (x=1..n, y=values).
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range oldestFirst {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	values := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		values[i] = intercept + slope*float64(n+i+1)
	}

	return &Forecast{
		Metric:    metric,
		Slope:     slope,
		Intercept: intercept,
		Values:    values,
	}
}
