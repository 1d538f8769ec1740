package models

import "time"

// MetricSample is a single observed value for one metric. Samples are
// immutable once created; the series store only ever appends and evicts.
type MetricSample struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// MetricGroupResult holds one collected metric group inside a snapshot.
// A group that failed to collect carries Error and an empty Metrics map;
// the rest of the snapshot is unaffected.
type MetricGroupResult struct {
	Metrics   map[string]float64 `json:"metrics"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Failed reports whether this group's collection failed.
func (g MetricGroupResult) Failed() bool {
	return g.Error != ""
}

// Value returns a sub-metric value and whether it was collected.
func (g MetricGroupResult) Value(name string) (float64, bool) {
	v, ok := g.Metrics[name]
	return v, ok
}

// PerformanceSnapshot is a point-in-time aggregate across the four metric
// groups. Created once per collection tick and immutable thereafter.
type PerformanceSnapshot struct {
	Timestamp   time.Time         `json:"timestamp"`
	WindowHours int               `json:"window_hours"`
	System      MetricGroupResult `json:"system"`
	Application MetricGroupResult `json:"application"`
	Storage     MetricGroupResult `json:"storage"`
	Business    MetricGroupResult `json:"business"`
}

// Groups returns the snapshot's metric groups keyed by group name.
func (s *PerformanceSnapshot) Groups() map[string]MetricGroupResult {
	return map[string]MetricGroupResult{
		"system":      s.System,
		"application": s.Application,
		"storage":     s.Storage,
		"business":    s.Business,
	}
}

// Lookup finds a sub-metric across all groups. The first group carrying the
// name wins; group collectors use disjoint metric names by convention.
func (s *PerformanceSnapshot) Lookup(name string) (float64, bool) {
	for _, g := range []MetricGroupResult{s.System, s.Application, s.Storage, s.Business} {
		if v, ok := g.Metrics[name]; ok {
			return v, true
		}
	}
	return 0, false
}
