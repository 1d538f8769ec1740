package metrics

import (
	"context"
	"runtime"
)

// RuntimeSystemSource reports process-level resource stats from the Go
// runtime. It is the built-in default for the system group; deployments with
// a node agent wire their own GroupSource instead.
type RuntimeSystemSource struct{}

func NewRuntimeSystemSource() *RuntimeSystemSource {
	return &RuntimeSystemSource{}
}

func (s *RuntimeSystemSource) Collect(ctx context.Context, windowHours int) (map[string]float64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memPct := 0.0
	if m.HeapSys > 0 {
		memPct = float64(m.HeapInuse) / float64(m.HeapSys) * 100
	}

	return map[string]float64{
		"memory_usage_pct": memPct,
		"heap_alloc_mb":    float64(m.HeapAlloc) / (1 << 20),
		"goroutines":       float64(runtime.NumGoroutine()),
		"gc_pause_ms":      float64(m.PauseNs[(m.NumGC+255)%256]) / 1e6,
	}, nil
}
