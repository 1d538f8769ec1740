package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/stats"
)

// Pairwise similarity weights. Type identity dominates; alerts of different
// severities are still half-similar on that component.
const (
	simWeightType     = 0.5
	simWeightSeverity = 0.3
	simWeightTime     = 0.2
)

// similarity scores two processed alerts in [0,1]. Time closeness decays
// linearly to zero across the aggregation window.
func similarity(a, b *models.ProcessedAlert, window time.Duration) float64 {
	typeScore := 0.0
	if a.Type == b.Type {
		typeScore = 1.0
	}

	sevScore := 0.5
	if a.Severity == b.Severity {
		sevScore = 1.0
	}

	dt := a.Timestamp.Sub(b.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	closeness := 0.0
	if window > 0 && dt < window {
		closeness = 1 - float64(dt)/float64(window)
	}

	return simWeightType*typeScore + simWeightSeverity*sevScore + simWeightTime*closeness
}

// aggregate collapses similar alerts into AggregatedAlerts using greedy
// clustering in arrival order: each unassigned alert seeds a cluster and
// claims every later unassigned alert within the similarity threshold. The
// earliest member represents the cluster; the representative's confidence is
// the mean of its members'.
func aggregate(alerts []models.ProcessedAlert, threshold float64, window time.Duration) ([]models.ProcessedAlert, []models.AggregatedAlert) {
	survivors := make([]models.ProcessedAlert, 0, len(alerts))
	var aggregated []models.AggregatedAlert

	assigned := make([]bool, len(alerts))
	for i := range alerts {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		members := []models.ProcessedAlert{alerts[i]}
		for j := i + 1; j < len(alerts); j++ {
			if assigned[j] {
				continue
			}
			if similarity(&alerts[i], &alerts[j], window) >= threshold {
				assigned[j] = true
				members = append(members, alerts[j])
			}
		}

		if len(members) == 1 {
			survivors = append(survivors, alerts[i])
			continue
		}

		confidences := make([]float64, len(members))
		for k, m := range members {
			confidences[k] = m.ConfidenceScore
		}

		rep := members[0]
		rep.Count = len(members)
		rep.ConfidenceScore = stats.Mean(confidences)
		rep.Message = fmt.Sprintf("%s (%d similar alerts)", rep.Type, len(members))

		aggregated = append(aggregated, models.AggregatedAlert{
			ID:              uuid.NewString(),
			Representative:  rep,
			Count:           len(members),
			Members:         members,
			ConfidenceScore: rep.ConfidenceScore,
			CreatedAt:       time.Now(),
		})
		survivors = append(survivors, rep)
	}

	return survivors, aggregated
}

// memberSpan returns the time between the earliest and latest member of an
// aggregated representative. Zero for singletons and pure duplicates.
func memberSpan(members []models.ProcessedAlert) time.Duration {
	if len(members) < 2 {
		return 0
	}
	earliest, latest := members[0].Timestamp, members[0].Timestamp
	for _, m := range members[1:] {
		if m.Timestamp.Before(earliest) {
			earliest = m.Timestamp
		}
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return latest.Sub(earliest)
}
