package alerts

import (
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
)

// Priority scoring blend.
const (
	priorityWeightSeverity   = 0.4
	priorityWeightConfidence = 0.3
	priorityWeightImpact     = 0.3

	// escalationThreshold marks scores that page a human.
	escalationThreshold = 0.7

	// defaultBusinessImpact applies to alert types without a configured
	// impact weight.
	defaultBusinessImpact = 0.5
)

// severityWeight maps alert severity to its priority contribution.
func severityWeight(severity string) float64 {
	switch severity {
	case models.SeverityCritical:
		return 1.0
	case models.SeverityHigh:
		return 0.8
	case models.SeverityMedium:
		return 0.6
	default:
		return 0.4
	}
}

// prioritize fills in the priority score, level and escalation flag on one
// alert. businessImpact is the per-alert-type policy table.
func prioritize(alert *models.ProcessedAlert, businessImpact map[string]float64) {
	impact, ok := businessImpact[alert.Type]
	if !ok {
		impact = defaultBusinessImpact
	}

	score := priorityWeightSeverity*severityWeight(alert.Severity) +
		priorityWeightConfidence*alert.ConfidenceScore +
		priorityWeightImpact*impact

	alert.PriorityScore = stats.Clamp(score, 0, 1)
	alert.PriorityLevel = priorityLevel(alert.PriorityScore)
	alert.EscalationRequired = alert.PriorityScore >= escalationThreshold
}

// priorityLevel buckets a priority score.
func priorityLevel(score float64) string {
	switch {
	case score >= 0.8:
		return models.PriorityCritical
	case score >= 0.6:
		return models.PriorityHigh
	case score >= 0.4:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
