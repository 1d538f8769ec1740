// Package alerts implements the adaptive threshold calculator and the alert
// processing pipeline: ingestion, threshold evaluation, aggregation, noise
// reduction, priority scoring and notification planning.
package alerts

import (
	"math"
	"time"

	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
)

// MinHistorySamples is the hard floor below which statistics are considered
// unreliable and the configured base threshold is used verbatim.
const MinHistorySamples = 10

// Threshold sources reported in ThresholdState.
const (
	SourceAdaptive         = "adaptive"
	SourceInsufficientData = "insufficient_data"
	SourceStatic           = "static"
)

// ThresholdResult is the explicit outcome of one threshold derivation.
// Insufficient history is an expected, frequent result, not an error.
type ThresholdResult struct {
	Value       float64
	Source      string
	SampleCount int
}

// Calculator derives per-metric-type dynamic thresholds from recent history.
// It is a pure function over an immutable history slice and safe for
// concurrent use across metrics.
type Calculator struct {
	configs map[string]config.AdaptiveThresholdConfig
	store   *metrics.SeriesStore
}

func NewCalculator(configs map[string]config.AdaptiveThresholdConfig, store *metrics.SeriesStore) *Calculator {
	return &Calculator{configs: configs, store: store}
}

// Threshold derives the current threshold for a metric type. The boolean is
// false when the type has no seed configuration at all.
func (c *Calculator) Threshold(metricType string) (ThresholdResult, bool) {
	cfg, ok := c.configs[metricType]
	if !ok {
		return ThresholdResult{}, false
	}

	seriesName := cfg.Metric
	if seriesName == "" {
		seriesName = metricType
	}

	cutoff := time.Now().Add(-time.Duration(cfg.LearningWindowHours) * time.Hour)
	history := c.store.ValuesSince(seriesName, cutoff)

	return c.FromHistory(metricType, history), true
}

// FromHistory derives the threshold for a metric type from an explicit
// history slice. Histories shorter than MinHistorySamples yield exactly the
// configured base threshold.
func (c *Calculator) FromHistory(metricType string, history []float64) ThresholdResult {
	cfg, ok := c.configs[metricType]
	if !ok {
		return ThresholdResult{}
	}

	if len(history) < MinHistorySamples {
		return ThresholdResult{
			Value:       cfg.BaseThreshold,
			Source:      SourceInsufficientData,
			SampleCount: len(history),
		}
	}

	mean := stats.Mean(history)
	sigma := stats.StdDev(history)
	p95 := stats.Percentile(history, 95)

	// The multipliers are deliberately asymmetric: error-rate spikes are
	// rarer and deserve earlier warning, latency carries higher natural
	// variance.
	var value float64
	switch cfg.Kind {
	case config.ThresholdKindResource:
		value = math.Min(p95+1.5*sigma, cfg.RangeMax)
	case config.ThresholdKindLatency:
		value = math.Min(p95+2*sigma, cfg.RangeMax)
	case config.ThresholdKindErrorRate:
		value = math.Min(mean+3*sigma, cfg.RangeMax)
	default:
		return ThresholdResult{
			Value:       cfg.BaseThreshold,
			Source:      SourceStatic,
			SampleCount: len(history),
		}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		// Calculation failure degrades to the base seed, never to a crash.
		return ThresholdResult{
			Value:       cfg.BaseThreshold,
			Source:      SourceStatic,
			SampleCount: len(history),
		}
	}

	return ThresholdResult{
		Value:       math.Max(value, cfg.RangeMin),
		Source:      SourceAdaptive,
		SampleCount: len(history),
	}
}

// Base returns the configured base threshold for a metric type.
func (c *Calculator) Base(metricType string) (float64, bool) {
	cfg, ok := c.configs[metricType]
	if !ok {
		return 0, false
	}
	return cfg.BaseThreshold, true
}

// States reports every configured metric type's base, current and adjustment.
func (c *Calculator) States() map[string]models.ThresholdState {
	out := make(map[string]models.ThresholdState, len(c.configs))
	now := time.Now()
	for metricType, cfg := range c.configs {
		result, _ := c.Threshold(metricType)
		out[metricType] = models.ThresholdState{
			MetricType: metricType,
			Base:       cfg.BaseThreshold,
			Current:    result.Value,
			Adjustment: result.Value - cfg.BaseThreshold,
			Source:     result.Source,
			UpdatedAt:  now,
		}
	}
	return out
}
