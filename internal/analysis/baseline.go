// Package analysis scores snapshots against quality baselines, SLA targets
// and short-window trends, and bundles the results into one comprehensive
// performance analysis.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

// Step scores for the four quality tiers.
const (
	scoreExcellent  = 1.0
	scoreGood       = 0.8
	scoreAcceptable = 0.6
	scorePoor       = 0.2
	scoreUnknown    = 0.5
)

// BaselineEvaluator scores tracked metrics against their tiered quality
// bands and produces a weighted overall score plus letter grade.
type BaselineEvaluator struct {
	bands   map[string]models.BaselineBand
	tracked []string
}

// NewBaselineEvaluator tracks the given metrics. When tracked is empty, the
// band keys become the tracked set.
func NewBaselineEvaluator(bands map[string]models.BaselineBand, tracked []string) *BaselineEvaluator {
	if len(tracked) == 0 {
		for name := range bands {
			tracked = append(tracked, name)
		}
		sort.Strings(tracked)
	}
	return &BaselineEvaluator{bands: bands, tracked: tracked}
}

// Tracked returns the metrics this evaluator assesses.
func (e *BaselineEvaluator) Tracked() []string {
	return e.tracked
}

// Evaluate assesses each tracked metric found in values. Metrics without a
// configured band, or absent from values, score 0.5 with grade "unknown"
// rather than failing the assessment.
func (e *BaselineEvaluator) Evaluate(values map[string]float64) *models.BaselineAssessment {
	assessment := &models.BaselineAssessment{
		Metrics:   make(map[string]models.MetricAssessment, len(e.tracked)),
		Timestamp: time.Now(),
	}

	var sum float64
	for _, metric := range e.tracked {
		value, haveValue := values[metric]
		band, haveBand := e.bands[metric]

		var ma models.MetricAssessment
		switch {
		case !haveValue:
			ma = models.MetricAssessment{Metric: metric, Score: scoreUnknown, Grade: models.GradeUnknown}
		case !haveBand:
			ma = models.MetricAssessment{Metric: metric, CurrentValue: value, Score: scoreUnknown, Grade: models.GradeUnknown}
		default:
			ma = assessAgainstBand(metric, value, band)
		}

		assessment.Metrics[metric] = ma
		sum += ma.Score
	}

	if len(e.tracked) > 0 {
		assessment.OverallScore = sum / float64(len(e.tracked))
	}
	assessment.Grade = letterGrade(assessment.OverallScore)
	return assessment
}

// assessAgainstBand applies the step score with the band's polarity. NaN or
// infinite inputs fall back to the unknown assessment.
func assessAgainstBand(metric string, value float64, band models.BaselineBand) models.MetricAssessment {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.MetricAssessment{Metric: metric, Score: scoreUnknown, Grade: models.GradeUnknown}
	}

	var score float64
	var grade string
	if band.Polarity == models.HigherIsBetter {
		switch {
		case value >= band.Excellent:
			score, grade = scoreExcellent, models.GradeExcellent
		case value >= band.Good:
			score, grade = scoreGood, models.GradeGood
		case value >= band.Acceptable:
			score, grade = scoreAcceptable, models.GradeAcceptable
		default:
			score, grade = scorePoor, models.GradePoor
		}
	} else {
		// Default polarity: lower is better, bands are upper bounds.
		switch {
		case value <= band.Excellent:
			score, grade = scoreExcellent, models.GradeExcellent
		case value <= band.Good:
			score, grade = scoreGood, models.GradeGood
		case value <= band.Acceptable:
			score, grade = scoreAcceptable, models.GradeAcceptable
		default:
			score, grade = scorePoor, models.GradePoor
		}
	}

	return models.MetricAssessment{
		Metric:       metric,
		CurrentValue: value,
		Score:        score,
		Grade:        grade,
	}
}

// letterGrade buckets the aggregate baseline score.
func letterGrade(score float64) string {
	switch {
	case score >= 0.9:
		return "A+"
	case score >= 0.8:
		return "A"
	case score >= 0.7:
		return "B"
	case score >= 0.6:
		return "C"
	default:
		return "D"
	}
}
