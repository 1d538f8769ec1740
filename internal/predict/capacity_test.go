package predict

import (
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

func dailySamples(name string, values []float64) []models.MetricSample {
	now := time.Now()
	out := make([]models.MetricSample, len(values))
	for i, v := range values {
		out[i] = models.MetricSample{
			Name:      name,
			Value:     v,
			Timestamp: now.Add(-time.Duration(len(values)-1-i) * 24 * time.Hour),
		}
	}
	return out
}

func TestProjectCapacityInsufficientData(t *testing.T) {
	engine := newTestEngine()

	projection := engine.ProjectCapacity("disk_usage_pct", dailySamples("disk_usage_pct", []float64{50, 51}), 5, 80)

	if projection.Status != models.RiskStatusInsufficientData {
		t.Errorf("status = %s, want insufficient_data", projection.Status)
	}
	if len(projection.Horizons) != 0 {
		t.Errorf("horizons = %d, want none", len(projection.Horizons))
	}
}

func TestProjectCapacityHorizons(t *testing.T) {
	engine := newTestEngine()

	// Flat 14-day history at 50%: the trend differential is zero and the
	// configured growth applies unchanged.
	values := make([]float64, 14)
	for i := range values {
		values[i] = 50
	}
	projection := engine.ProjectCapacity("disk_usage_pct", dailySamples("disk_usage_pct", values), 5, 80)

	if projection.Status != models.RiskStatusOK {
		t.Fatalf("status = %s, want ok", projection.Status)
	}
	if projection.AdjustedGrowthPct != 5 {
		t.Errorf("adjusted growth = %v, want unchanged 5", projection.AdjustedGrowthPct)
	}

	wantMonths := []int{1, 3, 6, 12}
	if len(projection.Horizons) != len(wantMonths) {
		t.Fatalf("horizons = %d, want %d", len(projection.Horizons), len(wantMonths))
	}

	prev := projection.CurrentUtilization
	for i, h := range projection.Horizons {
		if h.Months != wantMonths[i] {
			t.Errorf("horizon[%d].Months = %d, want %d", i, h.Months, wantMonths[i])
		}
		if h.ProjectedUtilization < prev {
			t.Errorf("projection shrinks at %d months: %v < %v", h.Months, h.ProjectedUtilization, prev)
		}
		prev = h.ProjectedUtilization
	}

	// 50% at 5%/month compounds past the 80% warning line by 12 months.
	last := projection.Horizons[len(projection.Horizons)-1]
	if !last.ExceedsWarning {
		t.Errorf("12-month projection %v did not cross the 80%% warning line", last.ProjectedUtilization)
	}
}

func TestProjectCapacityClampsAtFull(t *testing.T) {
	engine := newTestEngine()

	values := make([]float64, 14)
	for i := range values {
		values[i] = 95
	}
	projection := engine.ProjectCapacity("disk_usage_pct", dailySamples("disk_usage_pct", values), 20, 80)

	for _, h := range projection.Horizons {
		if h.ProjectedUtilization > 100 {
			t.Errorf("projection at %d months = %v, exceeds 100%%", h.Months, h.ProjectedUtilization)
		}
	}
}

func TestProjectCapacityTrendAdjustment(t *testing.T) {
	engine := newTestEngine()

	// First week at 40, second week at 60: the recent mean sits above the
	// 14-day baseline, so the adjusted growth exceeds the configured rate.
	values := []float64{40, 40, 40, 40, 40, 40, 40, 60, 60, 60, 60, 60, 60, 60}
	projection := engine.ProjectCapacity("disk_usage_pct", dailySamples("disk_usage_pct", values), 5, 80)

	if projection.AdjustedGrowthPct <= 5 {
		t.Errorf("adjusted growth = %v, want above configured 5 for a rising trend", projection.AdjustedGrowthPct)
	}
}

func TestProjectCapacityRiskLevels(t *testing.T) {
	engine := newTestEngine()

	values := make([]float64, 14)
	for i := range values {
		values[i] = 75
	}
	projection := engine.ProjectCapacity("disk_usage_pct", dailySamples("disk_usage_pct", values), 10, 80)

	for _, h := range projection.Horizons {
		switch h.RiskLevel {
		case models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow:
		default:
			t.Errorf("horizon %d months has invalid risk level %q", h.Months, h.RiskLevel)
		}
	}

	// 75% growing 10%/month is critical within three months.
	if projection.Horizons[1].RiskLevel != models.RiskCritical {
		t.Errorf("3-month risk = %s (%v%%), want critical",
			projection.Horizons[1].RiskLevel, projection.Horizons[1].ProjectedUtilization)
	}
}
