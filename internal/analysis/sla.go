package analysis

import (
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

// SLAComplianceChecker compares current values against the committed SLA
// targets and reports per-target compliance plus the aggregate percentage.
type SLAComplianceChecker struct {
	targets []models.SLATarget
}

func NewSLAComplianceChecker(targets []models.SLATarget) *SLAComplianceChecker {
	return &SLAComplianceChecker{targets: targets}
}

// Check evaluates every target against the supplied current values.
// Deviation is signed (current minus target); a target whose metric was not
// collected counts as non-compliant.
func (c *SLAComplianceChecker) Check(values map[string]float64) *models.SLAComplianceResult {
	result := &models.SLAComplianceResult{
		Targets:   make([]models.SLATargetResult, 0, len(c.targets)),
		Timestamp: time.Now(),
	}

	compliant := 0
	for _, target := range c.targets {
		tr := models.SLATargetResult{
			Name:   target.Name,
			Target: target.Target,
		}

		current, ok := values[target.Metric]
		if ok {
			tr.Current = current
			tr.Deviation = current - target.Target
			switch target.Direction {
			case models.AtLeast:
				tr.Compliant = current >= target.Target
			case models.AtMost:
				tr.Compliant = current <= target.Target
			}
		}

		if tr.Compliant {
			compliant++
		}
		result.Targets = append(result.Targets, tr)
	}

	if len(c.targets) > 0 {
		result.CompliancePct = float64(compliant) / float64(len(c.targets)) * 100
	}
	result.Grade = slaGrade(result.CompliancePct)
	return result
}

// slaGrade buckets the aggregate compliance percentage.
func slaGrade(pct float64) string {
	switch {
	case pct >= 95:
		return "A"
	case pct >= 85:
		return "B"
	case pct >= 75:
		return "C"
	default:
		return "D"
	}
}
