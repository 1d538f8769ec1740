// Package stats holds the descriptive statistics shared by the adaptive
// threshold calculator, trend analyzer and predictive failure engine. All
// functions are pure and return a defined zero value for degenerate input.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, or 0 for fewer than two
// samples.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks. Input is not mutated.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Quartiles returns Q1, Q2 (median) and Q3.
func Quartiles(values []float64) (q1, q2, q3 float64) {
	return Percentile(values, 25), Percentile(values, 50), Percentile(values, 75)
}

// IQRBounds returns the interquartile-range outlier fences
// [Q1 - k*IQR, Q3 + k*IQR]. The conventional k is 1.5.
func IQRBounds(values []float64, k float64) (lower, upper float64) {
	q1, _, q3 := Quartiles(values)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// LinearRegression fits y = intercept + slope*x over index-vs-value pairs
// (x = 0..n-1). Returns (0, mean) for fewer than two samples so projections
// degrade to a flat line.
func LinearRegression(values []float64) (slope, intercept float64) {
	n := len(values)
	if n < 2 {
		return 0, Mean(values)
	}
	var sx, sy, sxx, sxy float64
	for i, y := range values {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	fn := float64(n)
	den := fn*sxx - sx*sx
	if den == 0 {
		return 0, Mean(values)
	}
	slope = (fn*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / fn
	return slope, intercept
}

// Forecast projects the fitted regression line periods steps past the end of
// the series.
func Forecast(values []float64, periods int) []float64 {
	if periods <= 0 {
		return nil
	}
	slope, intercept := LinearRegression(values)
	out := make([]float64, periods)
	for i := 0; i < periods; i++ {
		x := float64(len(values) + i)
		out[i] = intercept + slope*x
	}
	return out
}

// EWMA returns the exponentially weighted moving average of the series with
// smoothing factor alpha in (0,1]. Used as the short-horizon alternative to
// regression forecasting.
func EWMA(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// ForecastEWMA projects the series periods steps ahead by holding the final
// smoothed level flat. Appropriate only for short horizons.
func ForecastEWMA(values []float64, alpha float64, periods int) []float64 {
	if len(values) == 0 || periods <= 0 {
		return nil
	}
	smoothed := EWMA(values, alpha)
	level := smoothed[len(smoothed)-1]
	out := make([]float64, periods)
	for i := range out {
		out[i] = level
	}
	return out
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is 0.
// Values above ~0.3 indicate high relative volatility.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return math.Abs(StdDev(values) / mean)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
