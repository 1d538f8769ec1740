package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

func testAlertingConfig() config.AlertingConfig {
	return config.AlertingConfig{
		AggregationWindowMinutes: 5,
		MaxAlertsPerWindow:       10,
		SimilarityThreshold:      0.8,
		MinConfidence:            0.6,
		MinDurationSeconds:       30,
		BusinessImpact: map[string]float64{
			"high_cpu_usage":  0.6,
			"high_error_rate": 0.9,
		},
	}
}

func newTestPipeline() *Pipeline {
	calc := NewCalculator(testThresholdConfigs(), metrics.NewSeriesStore(100))
	return NewPipeline(testAlertingConfig(), calc, logger.NewNop())
}

func TestProcessAlertsBreachWithEmptyHistory(t *testing.T) {
	pipeline := newTestPipeline()

	// Empty history: the adaptive calculator falls back to the configured
	// base of 80, and 85.5 > 80 survives evaluation.
	raw := models.RawAlert{
		Type:         "high_cpu_usage",
		Severity:     models.SeverityMedium,
		CurrentValue: 85.5,
		Threshold:    80.0,
		Timestamp:    time.Now(),
	}

	result, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	if len(result.ProcessedAlerts) != 1 {
		t.Fatalf("processed = %d, want 1 (suppressed: %v)", len(result.ProcessedAlerts), result.Suppressed)
	}

	alert := result.ProcessedAlerts[0]
	if alert.AdaptiveThreshold != 80 {
		t.Errorf("adaptive threshold = %v, want base fallback 80", alert.AdaptiveThreshold)
	}
	if alert.ConfidenceScore <= 0 || alert.ConfidenceScore > 1 {
		t.Errorf("confidence = %v, want within (0,1]", alert.ConfidenceScore)
	}
	// severity medium carries weight 0.6; with impact 0.6 and mid confidence
	// the score lands in the high bucket without escalation.
	if alert.PriorityLevel != models.PriorityHigh {
		t.Errorf("priority level = %s (score %v), want high", alert.PriorityLevel, alert.PriorityScore)
	}
	if alert.EscalationRequired {
		t.Errorf("escalation required at score %v, want below 0.7", alert.PriorityScore)
	}
}

func TestProcessAlertsSuppressesBelowThreshold(t *testing.T) {
	pipeline := newTestPipeline()

	raw := models.RawAlert{
		Type:         "high_cpu_usage",
		Severity:     models.SeverityMedium,
		CurrentValue: 70,
		Threshold:    80,
		Timestamp:    time.Now(),
	}

	result, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	if len(result.ProcessedAlerts) != 0 {
		t.Errorf("processed = %d, want 0", len(result.ProcessedAlerts))
	}
	if len(result.Suppressed) != 1 {
		t.Fatalf("suppressed = %d, want 1", len(result.Suppressed))
	}
	if result.Suppressed[0].Reason != models.SuppressedThresholdNotMet {
		t.Errorf("reason = %s, want threshold-not-met", result.Suppressed[0].Reason)
	}
}

func TestProcessAlertsRejectsInvalidInput(t *testing.T) {
	pipeline := newTestPipeline()

	raws := []models.RawAlert{
		{Type: "", Severity: models.SeverityHigh, Timestamp: time.Now()},
	}
	if _, err := pipeline.ProcessAlerts(context.Background(), raws); err == nil {
		t.Fatal("invalid alert accepted")
	}

	raws = []models.RawAlert{
		{Type: "x", Severity: "catastrophic", Timestamp: time.Now()},
	}
	if _, err := pipeline.ProcessAlerts(context.Background(), raws); err == nil {
		t.Fatal("invalid severity accepted")
	}
}

func TestProcessAlertsAggregatesSimilarPair(t *testing.T) {
	pipeline := newTestPipeline()
	now := time.Now()

	raws := []models.RawAlert{
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 90, Threshold: 80, Timestamp: now},
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 91, Threshold: 80, Timestamp: now.Add(45 * time.Second)},
	}

	result, err := pipeline.ProcessAlerts(context.Background(), raws)
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	if len(result.ProcessedAlerts) != 1 {
		t.Fatalf("processed = %d, want 1 representative", len(result.ProcessedAlerts))
	}
	if got := result.ProcessedAlerts[0].Count; got != 2 {
		t.Errorf("representative count = %d, want 2", got)
	}
	if len(result.AggregatedAlerts) != 1 {
		t.Errorf("aggregated audit groups = %d, want 1", len(result.AggregatedAlerts))
	}
}

func TestProcessAlertsScenarioSimilarityBoundary(t *testing.T) {
	pipeline := newTestPipeline()
	now := time.Now()

	// Two same-type same-severity alerts 30s apart join; a third of another
	// type and severity stays separate.
	raws := []models.RawAlert{
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 90, Threshold: 80, Timestamp: now},
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 92, Threshold: 80, Timestamp: now.Add(30 * time.Second)},
		{Type: "high_error_rate", Severity: models.SeverityLow, CurrentValue: 9, Threshold: 5, Timestamp: now.Add(30 * time.Second)},
	}

	result, err := pipeline.ProcessAlerts(context.Background(), raws)
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	types := make(map[string]int)
	for _, alert := range result.ProcessedAlerts {
		types[alert.Type] = alert.Count
	}
	if types["high_cpu_usage"] != 2 {
		t.Errorf("cpu pair count = %d, want 2", types["high_cpu_usage"])
	}
	if types["high_error_rate"] != 1 {
		t.Errorf("error-rate alert count = %d, want separate singleton", types["high_error_rate"])
	}
}

func TestProcessAlertsSuppressionCompleteness(t *testing.T) {
	pipeline := newTestPipeline()
	now := time.Now()

	raws := []models.RawAlert{
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 90, Threshold: 80, Timestamp: now},
		{Type: "high_cpu_usage", Severity: models.SeverityHigh, CurrentValue: 91, Threshold: 80, Timestamp: now.Add(10 * time.Second)},
		{Type: "high_cpu_usage", Severity: models.SeverityMedium, CurrentValue: 70, Threshold: 80, Timestamp: now},
		{Type: "high_error_rate", Severity: models.SeverityHigh, CurrentValue: 12, Threshold: 5, Timestamp: now},
	}

	result, err := pipeline.ProcessAlerts(context.Background(), raws)
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	// Every raw alert is accounted for exactly once: as a member of a
	// surviving (possibly aggregated) alert or as a suppression record.
	accounted := result.Stats.SuppressedCount
	for _, alert := range result.ProcessedAlerts {
		accounted += alert.Count
	}
	for _, alert := range result.PredictiveAlerts {
		accounted += alert.Count
	}
	if accounted != len(raws) {
		t.Errorf("accounted alerts = %d, want %d", accounted, len(raws))
	}

	if result.Stats.RawCount != len(raws) {
		t.Errorf("raw count = %d, want %d", result.Stats.RawCount, len(raws))
	}
}

func TestProcessAlertsRepeatedBatchIsStable(t *testing.T) {
	pipeline := newTestPipeline()

	raw := models.RawAlert{
		Type:         "high_error_rate",
		Severity:     models.SeverityHigh,
		CurrentValue: 12,
		Threshold:    5,
		Timestamp:    time.Now(),
	}

	first, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first.ProcessedAlerts) != len(second.ProcessedAlerts) {
		t.Errorf("processed counts differ across identical runs: %d vs %d",
			len(first.ProcessedAlerts), len(second.ProcessedAlerts))
	}
	if first.ProcessedAlerts[0].PriorityScore != second.ProcessedAlerts[0].PriorityScore {
		t.Errorf("priority scores differ across identical runs")
	}
}

func TestProcessAlertsFrequencySuppression(t *testing.T) {
	pipeline := newTestPipeline()
	now := time.Now()

	// Drive the per-type frequency counter past max_alerts_per_window (10)
	// across consecutive runs inside one window.
	raw := models.RawAlert{
		Type:         "high_error_rate",
		Severity:     models.SeverityHigh,
		CurrentValue: 12,
		Threshold:    5,
		Timestamp:    now,
	}

	var suppressed bool
	for i := 0; i < 12; i++ {
		raw.Timestamp = now.Add(time.Duration(i) * time.Second)
		result, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		for _, rec := range result.Suppressed {
			if rec.Reason == models.SuppressedTooFrequent {
				suppressed = true
			}
		}
	}
	if !suppressed {
		t.Error("recurring alert never suppressed as too-frequent")
	}
}

func TestProcessAlertsLowConfidenceSuppression(t *testing.T) {
	cfg := testAlertingConfig()
	cfg.MinConfidence = 0.99 // nothing clears this floor
	calc := NewCalculator(testThresholdConfigs(), metrics.NewSeriesStore(100))
	pipeline := NewPipeline(cfg, calc, logger.NewNop())

	raw := models.RawAlert{
		Type:         "high_cpu_usage",
		Severity:     models.SeverityMedium,
		CurrentValue: 85.5,
		Threshold:    80,
		Timestamp:    time.Now(),
	}

	result, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	if len(result.Suppressed) != 1 || result.Suppressed[0].Reason != models.SuppressedLowConfidence {
		t.Fatalf("suppressed = %+v, want one low-confidence record", result.Suppressed)
	}
}

func TestProcessAlertsSplitsPredictiveAlerts(t *testing.T) {
	pipeline := newTestPipeline()

	raws := []models.RawAlert{
		{
			Type: "predicted_high_cpu_usage", Severity: models.SeverityHigh,
			CurrentValue: 75, Threshold: 50,
			Source: models.AlertSourcePredictive, Timestamp: time.Now(),
		},
		{
			Type: "high_error_rate", Severity: models.SeverityHigh,
			CurrentValue: 12, Threshold: 5, Timestamp: time.Now(),
		},
	}

	result, err := pipeline.ProcessAlerts(context.Background(), raws)
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}

	if len(result.PredictiveAlerts) != 1 {
		t.Errorf("predictive alerts = %d, want 1", len(result.PredictiveAlerts))
	}
	if len(result.ProcessedAlerts) != 1 {
		t.Errorf("processed alerts = %d, want 1", len(result.ProcessedAlerts))
	}
}

func TestProcessAlertsNotificationRouting(t *testing.T) {
	pipeline := newTestPipeline()

	// Critical severity with high impact escalates into the immediate route.
	raws := []models.RawAlert{
		{
			Type: "high_error_rate", Severity: models.SeverityCritical,
			CurrentValue: 18, Threshold: 5, Timestamp: time.Now(),
		},
	}

	result, err := pipeline.ProcessAlerts(context.Background(), raws)
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}
	if len(result.ProcessedAlerts) != 1 {
		t.Fatalf("processed = %d, want 1", len(result.ProcessedAlerts))
	}

	alert := result.ProcessedAlerts[0]
	if alert.PriorityLevel != models.PriorityCritical {
		t.Fatalf("priority = %s (score %v), want critical", alert.PriorityLevel, alert.PriorityScore)
	}
	if !alert.EscalationRequired {
		t.Error("critical alert not flagged for escalation")
	}
	if len(result.NotificationPlan.Immediate) != 1 {
		t.Errorf("immediate notifications = %d, want 1", len(result.NotificationPlan.Immediate))
	}
}

func TestSuppressionLedgerAccumulates(t *testing.T) {
	pipeline := newTestPipeline()

	raw := models.RawAlert{
		Type: "high_cpu_usage", Severity: models.SeverityLow,
		CurrentValue: 10, Threshold: 80, Timestamp: time.Now(),
	}

	for i := 0; i < 3; i++ {
		if _, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw}); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	if got := len(pipeline.SuppressionLedger()); got != 3 {
		t.Errorf("ledger length = %d, want 3", got)
	}
}

func TestConfidenceBlend(t *testing.T) {
	pipeline := newTestPipeline()

	raw := models.RawAlert{Type: "high_cpu_usage", CurrentValue: 160, Threshold: 80}
	// Deviation ratio (160-80)/80 = 1.0 is at the cap.
	capped := pipeline.confidence(raw, 80)
	want := confidenceWeightBase*baseConfidence + confidenceWeightAccuracy*defaultHistoricalAccuracy + confidenceWeightDeviation*1.0
	if diff := capped - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", capped, want)
	}

	// A runaway breach cannot push past the cap.
	runaway := pipeline.confidence(models.RawAlert{Type: "high_cpu_usage", CurrentValue: 800, Threshold: 80}, 80)
	if runaway != capped {
		t.Errorf("runaway confidence = %v, want capped at %v", runaway, capped)
	}
}

func TestUpdateConfigTakesEffect(t *testing.T) {
	pipeline := newTestPipeline()

	cfg := testAlertingConfig()
	cfg.MinConfidence = 0.99
	pipeline.UpdateConfig(cfg)

	raw := models.RawAlert{
		Type: "high_cpu_usage", Severity: models.SeverityMedium,
		CurrentValue: 85.5, Threshold: 80, Timestamp: time.Now(),
	}
	result, err := pipeline.ProcessAlerts(context.Background(), []models.RawAlert{raw})
	if err != nil {
		t.Fatalf("ProcessAlerts failed: %v", err)
	}
	if len(result.Suppressed) != 1 {
		t.Error("updated confidence floor not applied")
	}
}

func TestSetHistoricalAccuracyRaisesConfidence(t *testing.T) {
	pipeline := newTestPipeline()
	raw := models.RawAlert{Type: "high_cpu_usage", CurrentValue: 85.5, Threshold: 80}

	before := pipeline.confidence(raw, 80)
	pipeline.SetHistoricalAccuracy("high_cpu_usage", 1.0)
	after := pipeline.confidence(raw, 80)

	if after <= before {
		t.Errorf("confidence did not rise with accuracy: before %v, after %v", before, after)
	}
}
