package predict

import (
	"math"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
)

// Capacity projection horizons in months.
var capacityHorizons = []int{1, 3, 6, 12}

const (
	recentTrendDays   = 7
	baselineTrendDays = 14

	// trendBlendWeight limits how far the observed short-term trend can pull
	// the configured growth assumption.
	trendBlendWeight = 0.5
)

// ProjectCapacity projects a utilization metric forward at fixed horizons.
// history carries timestamped samples so the recent trend can be compared
// against a longer baseline; growthRatePct is the assumed monthly growth and
// warningPct the capacity warning line. Histories shorter than
// MinHistorySamples report insufficient_data with no horizons.
func (e *Engine) ProjectCapacity(metricName string, history []models.MetricSample, growthRatePct, warningPct float64) *models.CapacityProjection {
	projection := &models.CapacityProjection{
		MetricName:     metricName,
		Status:         models.RiskStatusOK,
		GrowthRatePct:  growthRatePct,
		WarningLinePct: warningPct,
		GeneratedAt:    time.Now(),
	}

	if len(history) < MinHistorySamples {
		projection.Status = models.RiskStatusInsufficientData
		return projection
	}

	current := history[len(history)-1].Value
	projection.CurrentUtilization = current
	projection.AdjustedGrowthPct = adjustedGrowth(history, growthRatePct)

	monthlyFactor := 1 + projection.AdjustedGrowthPct/100
	for _, months := range capacityHorizons {
		days := float64(months) * 30
		projected := stats.Clamp(current*math.Pow(monthlyFactor, days/30), 0, 100)
		projection.Horizons = append(projection.Horizons, models.CapacityHorizon{
			Months:               months,
			ProjectedUtilization: projected,
			RiskLevel:            riskLevel(projected),
			ExceedsWarning:       projected >= warningPct,
		})
	}

	return projection
}

// adjustedGrowth blends the configured monthly growth rate with the observed
// 7-day versus 14-day mean differential. A rising short-term mean pulls the
// assumption up, a falling one pulls it down; the blend is dampened so a
// noisy week cannot dominate a long-standing assumption.
func adjustedGrowth(history []models.MetricSample, growthRatePct float64) float64 {
	now := history[len(history)-1].Timestamp
	recentCutoff := now.Add(-recentTrendDays * 24 * time.Hour)
	baselineCutoff := now.Add(-baselineTrendDays * 24 * time.Hour)

	var recent, baseline []float64
	for _, s := range history {
		if s.Timestamp.After(baselineCutoff) {
			baseline = append(baseline, s.Value)
		}
		if s.Timestamp.After(recentCutoff) {
			recent = append(recent, s.Value)
		}
	}

	if len(recent) == 0 || len(baseline) == 0 {
		return growthRatePct
	}

	baselineMean := stats.Mean(baseline)
	if baselineMean == 0 {
		return growthRatePct
	}

	differentialPct := (stats.Mean(recent) - baselineMean) / baselineMean * 100
	adjusted := growthRatePct + trendBlendWeight*differentialPct

	// Growth assumptions stay non-negative; capacity never projects downward
	// past the current level.
	return math.Max(adjusted, 0)
}
