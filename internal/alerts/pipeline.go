package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/monitoring"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// Confidence blend. Deviation ratio is capped at 1 so a runaway breach
// cannot push confidence past its band.
const (
	confidenceWeightBase      = 0.4
	confidenceWeightAccuracy  = 0.3
	confidenceWeightDeviation = 0.3

	// baseConfidence is the prior placed on any threshold breach.
	baseConfidence = 0.9

	// defaultHistoricalAccuracy is the prior for alert types without a
	// tracked accuracy record yet.
	defaultHistoricalAccuracy = 0.8
)

// activeAlertState tracks one alert type's recent activity for frequency
// accounting across pipeline runs.
type activeAlertState struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

// Pipeline is the alert processing pipeline. It is an explicitly constructed
// instance holding its own ledger and active-alert map; all shared state is
// serialized behind one mutex so the periodic loop and on-demand callers
// cannot race on the ledger.
type Pipeline struct {
	mu       sync.Mutex
	cfg      config.AlertingConfig
	calc     *Calculator
	ledger   []models.SuppressionRecord
	active   map[string]*activeAlertState
	accuracy map[string]float64
	logger   logger.Logger
}

func NewPipeline(cfg config.AlertingConfig, calc *Calculator, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		calc:     calc,
		active:   make(map[string]*activeAlertState),
		accuracy: make(map[string]float64),
		logger:   log,
	}
}

// UpdateConfig swaps in new pipeline knobs. Safe to call from the config
// watcher while runs are in flight.
func (p *Pipeline) UpdateConfig(cfg config.AlertingConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

// SetHistoricalAccuracy overrides the accuracy prior for an alert type.
// Operators feed this back from incident reviews.
func (p *Pipeline) SetHistoricalAccuracy(alertType string, accuracy float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accuracy[alertType] = accuracy
}

// SuppressionLedger returns a copy of the append-only suppression ledger.
func (p *Pipeline) SuppressionLedger() []models.SuppressionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.SuppressionRecord, len(p.ledger))
	copy(out, p.ledger)
	return out
}

// AdaptiveThresholds reports every configured metric type's threshold state.
func (p *Pipeline) AdaptiveThresholds() map[string]models.ThresholdState {
	return p.calc.States()
}

// ProcessAlerts runs the full pipeline over one batch of raw alerts:
// validate, threshold-evaluate, aggregate, noise-filter, prioritize, plan
// notifications. Every input alert ends either in the result's processed
// lists or in the suppression ledger with a reason; nothing is silently
// dropped. The only error returned is invalid input at the boundary.
func (p *Pipeline) ProcessAlerts(ctx context.Context, raws []models.RawAlert) (*models.PipelineResult, error) {
	start := time.Now()

	for i := range raws {
		if err := raws[i].Validate(); err != nil {
			return nil, fmt.Errorf("process alerts: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	result := &models.PipelineResult{
		Stats: models.PipelineStats{
			RawCount:           len(raws),
			SuppressionReasons: make(map[models.SuppressionReason]int),
		},
	}

	// Stage 1: adaptive threshold evaluation.
	evaluated := make([]models.ProcessedAlert, 0, len(raws))
	for _, raw := range raws {
		monitoring.RecordAlertProcessed(sourceOf(raw), raw.Severity)

		alert, suppressed := p.evaluateThreshold(raw)
		if suppressed != nil {
			p.suppress(result, *suppressed, models.SuppressedThresholdNotMet)
			continue
		}
		evaluated = append(evaluated, *alert)
	}

	// Stage 2: aggregation of near-duplicates.
	window := time.Duration(p.cfg.AggregationWindowMinutes) * time.Minute
	survivors, aggregated := aggregate(evaluated, p.cfg.SimilarityThreshold, window)
	result.AggregatedAlerts = aggregated

	// Stage 3: noise reduction. Spans come from the aggregation audit trail.
	spanByID := make(map[string]time.Duration, len(aggregated))
	for _, agg := range aggregated {
		spanByID[agg.Representative.ID] = memberSpan(agg.Members)
	}

	filtered := make([]models.ProcessedAlert, 0, len(survivors))
	for _, alert := range survivors {
		if reason, noisy := p.isNoise(alert, spanByID[alert.ID]); noisy {
			p.suppress(result, alert, reason)
			continue
		}
		filtered = append(filtered, alert)
	}

	// Stage 4: priority scoring. Stable sort preserves arrival order on ties.
	for i := range filtered {
		prioritize(&filtered[i], p.cfg.BusinessImpact)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PriorityScore > filtered[j].PriorityScore
	})

	for _, alert := range filtered {
		if alert.Source == models.AlertSourcePredictive {
			result.PredictiveAlerts = append(result.PredictiveAlerts, alert)
		} else {
			result.ProcessedAlerts = append(result.ProcessedAlerts, alert)
		}
	}

	// Stage 5: notification planning. Routing only; delivery is owned by the
	// notification collaborator and never blocks this run.
	result.NotificationPlan = planNotifications(filtered)

	result.Stats.ProcessedCount = result.Stats.RawCount - result.Stats.SuppressedCount
	result.Stats.AggregatedCount = len(aggregated)
	result.Stats.Duration = time.Since(start)

	monitoring.RecordPipelineRun(result.Stats.Duration)
	monitoring.SetActiveAlerts(len(p.active))

	p.logger.Debug("Alert pipeline run complete",
		"raw", result.Stats.RawCount,
		"processed", result.Stats.ProcessedCount,
		"suppressed", result.Stats.SuppressedCount,
		"aggregated", result.Stats.AggregatedCount,
	)

	return result, nil
}

// evaluateThreshold derives the alert's adaptive threshold and checks the
// breach. Returns the enriched alert, or the suppression candidate when the
// current value does not exceed the threshold.
func (p *Pipeline) evaluateThreshold(raw models.RawAlert) (*models.ProcessedAlert, *models.ProcessedAlert) {
	threshold := raw.Threshold
	base := raw.Threshold
	if result, ok := p.calc.Threshold(raw.Type); ok {
		threshold = result.Value
		if b, ok := p.calc.Base(raw.Type); ok {
			base = b
		}
	}

	alert := models.ProcessedAlert{
		RawAlert:            raw,
		ID:                  uuid.NewString(),
		AdaptiveThreshold:   threshold,
		ThresholdAdjustment: threshold - base,
		Count:               1,
	}

	if raw.CurrentValue <= threshold {
		return nil, &alert
	}

	alert.ConfidenceScore = p.confidence(raw, threshold)
	p.trackActivity(&alert)
	return &alert, nil
}

// confidence blends the breach prior, the alert type's historical accuracy
// and the capped deviation ratio.
func (p *Pipeline) confidence(raw models.RawAlert, threshold float64) float64 {
	accuracy, ok := p.accuracy[raw.Type]
	if !ok {
		accuracy = defaultHistoricalAccuracy
	}

	deviation := 1.0
	if threshold > 0 {
		deviation = (raw.CurrentValue - threshold) / threshold
		if deviation > 1 {
			deviation = 1
		}
		if deviation < 0 {
			deviation = 0
		}
	}

	return confidenceWeightBase*baseConfidence +
		confidenceWeightAccuracy*accuracy +
		confidenceWeightDeviation*deviation
}

// trackActivity updates the per-type frequency window used by noise
// reduction.
func (p *Pipeline) trackActivity(alert *models.ProcessedAlert) {
	state, ok := p.active[alert.Type]
	window := time.Duration(p.cfg.AggregationWindowMinutes) * time.Minute
	if !ok || alert.Timestamp.Sub(state.windowStart) > window {
		state = &activeAlertState{windowStart: alert.Timestamp}
		p.active[alert.Type] = state
	}
	state.lastSeen = alert.Timestamp
	state.count++
}

// isNoise applies the three noise rules to a surviving alert: recurring too
// frequently within the window, an aggregated burst too brief to act on, or
// confidence below the floor. span is the aggregated member time span, zero
// for singletons.
func (p *Pipeline) isNoise(alert models.ProcessedAlert, span time.Duration) (models.SuppressionReason, bool) {
	if state, ok := p.active[alert.Type]; ok && state.count > p.cfg.MaxAlertsPerWindow {
		return models.SuppressedTooFrequent, true
	}

	minDuration := time.Duration(p.cfg.MinDurationSeconds) * time.Second
	if alert.Count > 1 && span > 0 && span < minDuration {
		return models.SuppressedTooShortDuration, true
	}

	if alert.ConfidenceScore < p.cfg.MinConfidence {
		return models.SuppressedLowConfidence, true
	}

	return "", false
}

// suppress appends ledger entries for the alert (one per member for
// aggregated representatives, so every raw alert is accounted exactly once).
func (p *Pipeline) suppress(result *models.PipelineResult, alert models.ProcessedAlert, reason models.SuppressionReason) {
	now := time.Now()
	records := []models.SuppressionRecord{{Alert: alert, Reason: reason, SuppressedAt: now}}

	if alert.Count > 1 {
		records = records[:0]
		for _, member := range p.membersOf(result, alert) {
			records = append(records, models.SuppressionRecord{Alert: member, Reason: reason, SuppressedAt: now})
		}
	}

	for _, rec := range records {
		p.ledger = append(p.ledger, rec)
		result.Suppressed = append(result.Suppressed, rec)
		result.Stats.SuppressedCount++
		result.Stats.SuppressionReasons[reason]++
		monitoring.RecordSuppression(string(reason))
	}
}

// membersOf resolves an aggregated representative back to its audit members.
func (p *Pipeline) membersOf(result *models.PipelineResult, alert models.ProcessedAlert) []models.ProcessedAlert {
	for _, agg := range result.AggregatedAlerts {
		if agg.Representative.ID == alert.ID {
			return agg.Members
		}
	}
	return []models.ProcessedAlert{alert}
}

// planNotifications routes surviving alerts by priority: critical fires
// immediately, high and medium are scheduled, low is logged only.
func planNotifications(alerts []models.ProcessedAlert) models.NotificationPlan {
	var plan models.NotificationPlan
	now := time.Now()

	for _, alert := range alerts {
		n := models.PlannedNotification{
			AlertID:       alert.ID,
			AlertType:     alert.Type,
			Severity:      alert.Severity,
			PriorityLevel: alert.PriorityLevel,
			Message:       alert.Message,
			CreatedAt:     now,
		}
		switch alert.PriorityLevel {
		case models.PriorityCritical:
			n.Route = models.RouteImmediate
			plan.Immediate = append(plan.Immediate, n)
		case models.PriorityHigh, models.PriorityMedium:
			n.Route = models.RouteScheduled
			plan.Scheduled = append(plan.Scheduled, n)
		default:
			n.Route = models.RouteLogOnly
			plan.LogOnly = append(plan.LogOnly, n)
		}
	}

	return plan
}

func sourceOf(raw models.RawAlert) string {
	if raw.Source == "" {
		return models.AlertSourceExternal
	}
	return raw.Source
}
