package models

import (
	"fmt"
	"time"
)

// Alert severities accepted at the pipeline boundary.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert sources. Threshold alerts are derived from snapshot breaches by the
// scheduler, predictive alerts are seeded by the failure engine, external
// alerts arrive from callers outside this subsystem.
const (
	AlertSourceThreshold  = "threshold"
	AlertSourcePredictive = "predictive"
	AlertSourceExternal   = "external"
)

// RawAlert is the producer-supplied input to the alert pipeline.
type RawAlert struct {
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	CurrentValue float64   `json:"current_value"`
	Threshold    float64   `json:"threshold"`
	Source       string    `json:"source,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Validate enforces the pipeline's input contract. Invalid input is the only
// error class the pipeline propagates to callers.
func (a *RawAlert) Validate() error {
	if a.Type == "" {
		return fmt.Errorf("raw alert: type is required")
	}
	switch a.Severity {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
	default:
		return fmt.Errorf("raw alert %q: invalid severity %q", a.Type, a.Severity)
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("raw alert %q: timestamp is required", a.Type)
	}
	return nil
}

// Priority levels derived from the priority score.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// ProcessedAlert is a RawAlert that survived adaptive-threshold evaluation,
// enriched with pipeline scoring. Count is 1 for singletons and the member
// count for aggregated representatives.
type ProcessedAlert struct {
	RawAlert

	ID                  string  `json:"id"`
	AdaptiveThreshold   float64 `json:"adaptive_threshold"`
	ThresholdAdjustment float64 `json:"threshold_adjustment"`
	ConfidenceScore     float64 `json:"confidence_score"`
	PriorityScore       float64 `json:"priority_score"`
	PriorityLevel       string  `json:"priority_level"`
	EscalationRequired  bool    `json:"escalation_required"`
	Count               int     `json:"count"`
}

// AggregatedAlert wraps two or more similar processed alerts behind one
// summary record. Members are retained for audit.
type AggregatedAlert struct {
	ID              string           `json:"id"`
	Representative  ProcessedAlert   `json:"representative"`
	Count           int              `json:"count"`
	Members         []ProcessedAlert `json:"members"`
	ConfidenceScore float64          `json:"confidence_score"`
	CreatedAt       time.Time        `json:"created_at"`
}

// SuppressionReason enumerates why an alert was dropped. Every suppressed
// alert is recorded with exactly one of these.
type SuppressionReason string

const (
	SuppressedThresholdNotMet  SuppressionReason = "threshold-not-met"
	SuppressedTooFrequent      SuppressionReason = "too-frequent"
	SuppressedTooShortDuration SuppressionReason = "too-short-duration"
	SuppressedLowConfidence    SuppressionReason = "low-confidence"
)

// SuppressionRecord is one entry of the append-only suppression ledger.
type SuppressionRecord struct {
	Alert        ProcessedAlert    `json:"alert"`
	Reason       SuppressionReason `json:"reason"`
	SuppressedAt time.Time         `json:"suppressed_at"`
}

// Notification routes planned by the pipeline. Delivery itself is owned by
// the notification collaborator and never blocks a pipeline run.
const (
	RouteImmediate = "immediate"
	RouteScheduled = "scheduled"
	RouteLogOnly   = "log-only"
)

// PlannedNotification is one routing decision for a surviving alert.
type PlannedNotification struct {
	AlertID       string    `json:"alert_id"`
	AlertType     string    `json:"alert_type"`
	Severity      string    `json:"severity"`
	PriorityLevel string    `json:"priority_level"`
	Route         string    `json:"route"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// NotificationPlan groups routing decisions for one pipeline run.
type NotificationPlan struct {
	Immediate []PlannedNotification `json:"immediate"`
	Scheduled []PlannedNotification `json:"scheduled"`
	LogOnly   []PlannedNotification `json:"log_only"`
}

// Total returns the number of planned notifications across all routes.
func (p *NotificationPlan) Total() int {
	return len(p.Immediate) + len(p.Scheduled) + len(p.LogOnly)
}

// PipelineStats summarises one pipeline run. RawCount always equals
// ProcessedCount + SuppressedCount: nothing is dropped without a record.
type PipelineStats struct {
	RawCount           int                       `json:"raw_count"`
	ProcessedCount     int                       `json:"processed_count"`
	SuppressedCount    int                       `json:"suppressed_count"`
	AggregatedCount    int                       `json:"aggregated_count"`
	SuppressionReasons map[SuppressionReason]int `json:"suppression_reasons"`
	Duration           time.Duration             `json:"duration"`
}

// PipelineResult is the output of one ProcessAlerts invocation.
type PipelineResult struct {
	ProcessedAlerts  []ProcessedAlert    `json:"processed_alerts"`
	PredictiveAlerts []ProcessedAlert    `json:"predictive_alerts"`
	AggregatedAlerts []AggregatedAlert   `json:"aggregated_alerts"`
	Suppressed       []SuppressionRecord `json:"suppressed"`
	NotificationPlan NotificationPlan    `json:"notification_plan"`
	Stats            PipelineStats       `json:"statistics"`
}

// ThresholdState reports one metric type's adaptive threshold next to its
// configured base.
type ThresholdState struct {
	MetricType string    `json:"metric_type"`
	Base       float64   `json:"base"`
	Current    float64   `json:"current"`
	Adjustment float64   `json:"adjustment"`
	Source     string    `json:"source"` // adaptive | base-fallback
	UpdatedAt  time.Time `json:"updated_at"`
}

// Notification is the payload handed to delivery integrations.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // alert, prediction
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Component string    `json:"component"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}
