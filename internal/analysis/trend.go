package analysis

import (
	"math"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
)

// minTrendSamples is the shortest history a trend verdict is drawn from.
// Below it the direction is reported as stable with zero strength.
const minTrendSamples = 5

// stableRelativeSlope is the per-period relative slope under which a series
// counts as stable.
const stableRelativeSlope = 0.01

// TrendAnalyzer computes the short-window direction and strength of a metric
// series.
type TrendAnalyzer struct{}

func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// Analyze fits a regression line over the series and classifies the
// direction relative to the metric's polarity: a rising error rate degrades,
// a rising throughput improves. Strength is the absolute index-vs-value
// correlation, so noisy slopes score weaker than consistent ones.
func (a *TrendAnalyzer) Analyze(metric string, values []float64, polarity models.Polarity) models.TrendAnalysis {
	ta := models.TrendAnalysis{
		Metric:      metric,
		Direction:   models.TrendStable,
		SampleCount: len(values),
	}
	if len(values) < minTrendSamples {
		return ta
	}

	slope, _ := stats.LinearRegression(values)
	ta.Slope = slope

	mean := stats.Mean(values)
	relSlope := slope
	if mean != 0 {
		relSlope = slope / math.Abs(mean)
	}

	if math.Abs(relSlope) < stableRelativeSlope {
		return ta
	}

	rising := slope > 0
	if (rising && polarity == models.HigherIsBetter) || (!rising && polarity != models.HigherIsBetter) {
		ta.Direction = models.TrendImproving
	} else {
		ta.Direction = models.TrendDegrading
	}

	ta.Strength = indexCorrelation(values)
	return ta
}

// indexCorrelation returns |Pearson r| between sample index and value.
func indexCorrelation(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, syy, sxy float64
	for i, y := range values {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}
	fn := float64(n)
	num := fn*sxy - sx*sy
	den := math.Sqrt((fn*sxx - sx*sx) * (fn*syy - sy*sy))
	if den == 0 {
		return 0
	}
	return math.Abs(num / den)
}
