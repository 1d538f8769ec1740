// Package predict implements the predictive failure engine: IQR outlier
// detection, lightweight forecasting, composite risk scoring and
// time-to-breach estimation over metric histories.
package predict

import (
	"fmt"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/monitoring"
	"github.com/eduplatform/vigil-core/internal/stats"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// MinHistorySamples is the floor below which no prediction is attempted and
// the assessment reports insufficient_data with risk level unknown.
const MinHistorySamples = 10

// ForecastMethod selects the projection technique. Regression suits trend
// extrapolation; EWMA suits short-horizon smoothing of noisy series.
type ForecastMethod string

const (
	ForecastRegression ForecastMethod = "regression"
	ForecastEWMA       ForecastMethod = "ewma"
)

// Composite risk score contributions (additive, clamped at 100).
const (
	riskOutlierWeight      = 30.0
	riskSlopeContribution  = 25.0
	riskUpperBreach        = 40.0
	riskLowerBreach        = 30.0
	riskVolatility         = 20.0
	outlierRateFloor       = 0.1
	volatilityFloor        = 0.3
	dynamicThresholdSigmas = 2.0
)

// Engine is the predictive failure engine. Pure over its input history, so
// assessments for different metrics may run concurrently.
type Engine struct {
	defaultPeriods int
	ewmaAlpha      float64
	periodDuration time.Duration
	logger         logger.Logger
}

func NewEngine(defaultPeriods int, ewmaAlpha float64, log logger.Logger) *Engine {
	if defaultPeriods <= 0 {
		defaultPeriods = 24
	}
	return &Engine{
		defaultPeriods: defaultPeriods,
		ewmaAlpha:      ewmaAlpha,
		periodDuration: 24 * time.Hour,
		logger:         log,
	}
}

// PredictFailure assesses one metric's forward-looking risk using regression
// forecasting. horizonPeriods <= 0 falls back to the engine default.
func (e *Engine) PredictFailure(metricName string, history []float64, horizonPeriods int) *models.RiskAssessment {
	return e.PredictFailureWith(metricName, history, horizonPeriods, ForecastRegression)
}

// PredictFailureWith is PredictFailure with an explicit forecast method.
func (e *Engine) PredictFailureWith(metricName string, history []float64, horizonPeriods int, method ForecastMethod) *models.RiskAssessment {
	if horizonPeriods <= 0 {
		horizonPeriods = e.defaultPeriods
	}

	assessment := &models.RiskAssessment{
		MetricName:  metricName,
		Status:      models.RiskStatusOK,
		RiskLevel:   models.RiskUnknown,
		GeneratedAt: time.Now(),
	}

	if len(history) < MinHistorySamples {
		assessment.Status = models.RiskStatusInsufficientData
		monitoring.RecordRiskAssessment(models.RiskUnknown)
		return assessment
	}

	mean := stats.Mean(history)
	sigma := stats.StdDev(history)
	current := history[len(history)-1]
	upper := mean + dynamicThresholdSigmas*sigma
	lower := mean - dynamicThresholdSigmas*sigma

	// Outlier detection via IQR fences.
	lowFence, highFence := stats.IQRBounds(history, 1.5)
	outliers := 0
	for _, v := range history {
		if v < lowFence || v > highFence {
			outliers++
		}
	}
	assessment.OutlierRate = float64(outliers) / float64(len(history))

	// Forecast.
	switch method {
	case ForecastEWMA:
		assessment.ForecastedValues = stats.ForecastEWMA(history, e.ewmaAlpha, horizonPeriods)
	default:
		assessment.ForecastedValues = stats.Forecast(history, horizonPeriods)
	}
	slope, _ := stats.LinearRegression(history)

	// Composite risk score: additive contributions, clamped at 100.
	var score float64
	var factors []string

	if assessment.OutlierRate > outlierRateFloor {
		score += riskOutlierWeight * assessment.OutlierRate
		factors = append(factors, fmt.Sprintf("elevated outlier rate (%.0f%%)", assessment.OutlierRate*100))
	}
	if slope > sigma {
		score += riskSlopeContribution
		factors = append(factors, "steep upward trend")
	}
	if current > upper {
		score += riskUpperBreach
		factors = append(factors, fmt.Sprintf("current value %.2f above dynamic upper threshold %.2f", current, upper))
	} else if current < lower {
		score += riskLowerBreach
		factors = append(factors, fmt.Sprintf("current value %.2f below dynamic lower threshold %.2f", current, lower))
	}
	if cv := stats.CoefficientOfVariation(history); cv > volatilityFloor {
		score += riskVolatility
		factors = append(factors, fmt.Sprintf("high relative volatility (cv %.2f)", cv))
	}

	assessment.RiskScore = stats.Clamp(score, 0, 100)
	assessment.RiskLevel = riskLevel(assessment.RiskScore)
	assessment.RiskFactors = factors
	assessment.Confidence = sampleConfidence(len(history))

	// Time-to-breach only matters once risk is actionable.
	if assessment.RiskLevel == models.RiskHigh || assessment.RiskLevel == models.RiskCritical {
		if periods := firstBreach(assessment.ForecastedValues, upper); periods > 0 {
			assessment.PeriodsToBreach = periods
			breach := assessment.GeneratedAt.Add(time.Duration(periods) * e.periodDuration)
			assessment.PredictedBreach = &breach
		}
	}

	monitoring.RecordRiskAssessment(assessment.RiskLevel)
	return assessment
}

// firstBreach returns the 1-based index of the first forecasted value above
// the threshold, 0 when none breaches within the horizon.
func firstBreach(forecast []float64, upper float64) int {
	for i, v := range forecast {
		if v > upper {
			return i + 1
		}
	}
	return 0
}

// riskLevel buckets a composite risk score.
func riskLevel(score float64) string {
	switch {
	case score > 70:
		return models.RiskCritical
	case score > 50:
		return models.RiskHigh
	case score > 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// sampleConfidence grows with history length: thin histories barely clear
// the statistical floor, long ones approach but never claim certainty.
func sampleConfidence(n int) float64 {
	return stats.Clamp(float64(n)/100, 0.3, 0.95)
}
