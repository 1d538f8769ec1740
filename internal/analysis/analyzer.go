package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// RiskPredictor is the slice of the predictive engine the analyzer needs.
type RiskPredictor interface {
	PredictFailure(metricName string, history []float64, horizonPeriods int) *models.RiskAssessment
}

// Analyzer bundles baseline scoring, SLA compliance, trend analysis and
// predictive risk into one ComprehensivePerformanceAnalysis.
type Analyzer struct {
	collector *metrics.Collector
	store     *metrics.SeriesStore
	baseline  *BaselineEvaluator
	sla       *SLAComplianceChecker
	trends    *TrendAnalyzer
	predictor RiskPredictor
	bands     map[string]models.BaselineBand
	horizon   int
	logger    logger.Logger
}

func NewAnalyzer(
	collector *metrics.Collector,
	baseline *BaselineEvaluator,
	sla *SLAComplianceChecker,
	trends *TrendAnalyzer,
	predictor RiskPredictor,
	bands map[string]models.BaselineBand,
	horizonPeriods int,
	log logger.Logger,
) *Analyzer {
	if horizonPeriods <= 0 {
		horizonPeriods = 24
	}
	return &Analyzer{
		collector: collector,
		store:     collector.Store(),
		baseline:  baseline,
		sla:       sla,
		trends:    trends,
		predictor: predictor,
		bands:     bands,
		horizon:   horizonPeriods,
		logger:    log,
	}
}

// Analyze collects a fresh snapshot and assesses it. A degraded analysis is
// always preferable to none: group failures and thin histories surface as
// unknown grades and insufficient_data risks, not errors.
func (a *Analyzer) Analyze(ctx context.Context, windowHours int) (*models.ComprehensiveAnalysis, error) {
	snapshot := a.collector.CollectSnapshot(ctx, windowHours)
	values := a.currentValues(snapshot)

	analysis := &models.ComprehensiveAnalysis{
		Timestamp:   time.Now(),
		WindowHours: windowHours,
		Snapshot:    snapshot,
		Baseline:    a.baseline.Evaluate(values),
		SLA:         a.sla.Check(values),
	}

	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	for _, metric := range a.baseline.Tracked() {
		history := a.store.ValuesSince(metric, cutoff)
		polarity := a.bands[metric].Polarity
		analysis.Trends = append(analysis.Trends, a.trends.Analyze(metric, history, polarity))

		if a.predictor != nil {
			full := a.store.Values(metric)
			analysis.Risks = append(analysis.Risks, *a.predictor.PredictFailure(metric, full, a.horizon))
		}
	}

	analysis.Recommendations = buildRecommendations(analysis)
	return analysis, nil
}

// currentValues flattens the snapshot's groups and adds the derived metrics
// SLA targets reference: availability from the error rate, p95 latency from
// recent history.
func (a *Analyzer) currentValues(snapshot *models.PerformanceSnapshot) map[string]float64 {
	values := make(map[string]float64)
	for _, group := range snapshot.Groups() {
		if group.Failed() {
			continue
		}
		for name, v := range group.Metrics {
			values[name] = v
		}
	}

	if errRate, ok := values["error_rate_pct"]; ok {
		values["availability_pct"] = 100 - errRate
	}
	if history := a.store.Values("api_response_time_ms"); len(history) > 0 {
		values["api_response_time_p95_ms"] = stats.Percentile(history, 95)
	}

	return values
}

// buildRecommendations derives short operator-facing hints from the weakest
// parts of the analysis.
func buildRecommendations(analysis *models.ComprehensiveAnalysis) []string {
	var recs []string

	for _, metric := range sortedAssessments(analysis.Baseline) {
		ma := analysis.Baseline.Metrics[metric]
		if ma.Grade == models.GradePoor {
			recs = append(recs, fmt.Sprintf("%s is outside its acceptable band (current %.2f); investigate before it breaches SLA", metric, ma.CurrentValue))
		}
	}

	if analysis.SLA != nil {
		for _, tr := range analysis.SLA.Targets {
			if !tr.Compliant {
				recs = append(recs, fmt.Sprintf("SLA target %s is non-compliant (current %.2f vs target %.2f)", tr.Name, tr.Current, tr.Target))
			}
		}
	}

	for _, trend := range analysis.Trends {
		if trend.Direction == models.TrendDegrading && trend.Strength >= 0.5 {
			recs = append(recs, fmt.Sprintf("%s is degrading consistently over the window; review recent changes", trend.Metric))
		}
	}

	for _, risk := range analysis.Risks {
		if risk.RiskLevel == models.RiskHigh || risk.RiskLevel == models.RiskCritical {
			recs = append(recs, fmt.Sprintf("%s carries %s predictive risk (score %.0f): %v", risk.MetricName, risk.RiskLevel, risk.RiskScore, risk.RiskFactors))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "all tracked metrics within expected ranges")
	}
	return recs
}

func sortedAssessments(b *models.BaselineAssessment) []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Metrics))
	for name := range b.Metrics {
		names = append(names, name)
	}
	// Deterministic recommendation ordering.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return names
}
