package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

type stubPredictor struct {
	level string
}

func (s *stubPredictor) PredictFailure(metricName string, history []float64, horizonPeriods int) *models.RiskAssessment {
	return &models.RiskAssessment{
		MetricName:  metricName,
		Status:      models.RiskStatusOK,
		RiskLevel:   s.level,
		RiskScore:   60,
		GeneratedAt: time.Now(),
	}
}

func newTestAnalyzer(t *testing.T, sources metrics.Sources, predictor RiskPredictor) *Analyzer {
	t.Helper()

	bands := map[string]models.BaselineBand{
		"cpu_usage_pct":  {Excellent: 50, Good: 70, Acceptable: 85, Polarity: models.LowerIsBetter},
		"error_rate_pct": {Excellent: 0.1, Good: 1, Acceptable: 5, Polarity: models.LowerIsBetter},
	}
	targets := []models.SLATarget{
		{Name: "availability", Metric: "availability_pct", Target: 99.9, Direction: models.AtLeast},
		{Name: "error_rate", Metric: "error_rate_pct", Target: 1.0, Direction: models.AtMost},
	}

	store := metrics.NewSeriesStore(100)
	collector := metrics.NewCollector(sources, store, time.Second, logger.NewNop())

	return NewAnalyzer(
		collector,
		NewBaselineEvaluator(bands, nil),
		NewSLAComplianceChecker(targets),
		NewTrendAnalyzer(),
		predictor,
		bands,
		24,
		logger.NewNop(),
	)
}

func healthySources() metrics.Sources {
	return metrics.Sources{
		System:      metrics.GroupSourceFunc(func(ctx context.Context, w int) (map[string]float64, error) { return map[string]float64{"cpu_usage_pct": 45}, nil }),
		Application: metrics.GroupSourceFunc(func(ctx context.Context, w int) (map[string]float64, error) { return map[string]float64{"error_rate_pct": 0.05}, nil }),
	}
}

func TestAnalyzeBundlesAllSections(t *testing.T) {
	analyzer := newTestAnalyzer(t, healthySources(), &stubPredictor{level: models.RiskLow})

	analysis, err := analyzer.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Baseline == nil || analysis.SLA == nil {
		t.Fatal("analysis missing baseline or SLA sections")
	}
	if analysis.Snapshot == nil {
		t.Fatal("analysis missing snapshot")
	}
	if len(analysis.Trends) == 0 {
		t.Error("no trend entries for tracked metrics")
	}
	if len(analysis.Risks) == 0 {
		t.Error("no risk entries despite a configured predictor")
	}
	if len(analysis.Recommendations) == 0 {
		t.Error("no recommendations generated")
	}
}

func TestAnalyzeDerivesAvailability(t *testing.T) {
	analyzer := newTestAnalyzer(t, healthySources(), nil)

	analysis, err := analyzer.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// availability_pct = 100 - error_rate_pct = 99.95, compliant at 99.9.
	for _, tr := range analysis.SLA.Targets {
		if tr.Name == "availability" && !tr.Compliant {
			t.Errorf("derived availability %v reported non-compliant", tr.Current)
		}
	}
}

func TestAnalyzeHealthySystemHasCleanRecommendation(t *testing.T) {
	analyzer := newTestAnalyzer(t, healthySources(), &stubPredictor{level: models.RiskLow})

	analysis, err := analyzer.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(analysis.Recommendations) != 1 {
		t.Fatalf("recommendations = %v, want the single all-clear", analysis.Recommendations)
	}
}

func TestAnalyzeSurfacesHighRisk(t *testing.T) {
	analyzer := newTestAnalyzer(t, healthySources(), &stubPredictor{level: models.RiskHigh})

	analysis, err := analyzer.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var riskRecommended bool
	for _, rec := range analysis.Recommendations {
		if len(rec) > 0 && rec != "all tracked metrics within expected ranges" {
			riskRecommended = true
		}
	}
	if !riskRecommended {
		t.Error("high predictive risk produced no recommendation")
	}
}

func TestAnalyzeDegradedGroupStillAnalyzes(t *testing.T) {
	sources := metrics.Sources{
		System: metrics.GroupSourceFunc(func(ctx context.Context, w int) (map[string]float64, error) {
			return map[string]float64{"cpu_usage_pct": 45}, nil
		}),
		// Application group left unconfigured: error_rate_pct is missing.
	}
	analyzer := newTestAnalyzer(t, sources, nil)

	analysis, err := analyzer.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze must not fail on partial collection: %v", err)
	}

	ma := analysis.Baseline.Metrics["error_rate_pct"]
	if ma.Grade != models.GradeUnknown {
		t.Errorf("uncollected metric graded %s, want unknown", ma.Grade)
	}
}
