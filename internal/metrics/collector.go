package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/monitoring"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// GroupSource supplies one metric group's instantaneous sub-metric values.
// System, application, storage and business sources are collaborators wired
// in by the surrounding platform.
type GroupSource interface {
	Collect(ctx context.Context, windowHours int) (map[string]float64, error)
}

// GroupSourceFunc adapts a plain function to GroupSource.
type GroupSourceFunc func(ctx context.Context, windowHours int) (map[string]float64, error)

func (f GroupSourceFunc) Collect(ctx context.Context, windowHours int) (map[string]float64, error) {
	return f(ctx, windowHours)
}

// Sources names the four group collaborators a Collector fans out to.
type Sources struct {
	System      GroupSource
	Application GroupSource
	Storage     GroupSource
	Business    GroupSource
}

// Collector produces PerformanceSnapshots on demand. The four groups are
// collected concurrently and independently: a failing or slow group yields
// an error placeholder for that group only.
type Collector struct {
	sources      Sources
	store        *SeriesStore
	groupTimeout time.Duration
	logger       logger.Logger
}

func NewCollector(sources Sources, store *SeriesStore, groupTimeout time.Duration, log logger.Logger) *Collector {
	if groupTimeout <= 0 {
		groupTimeout = 10 * time.Second
	}
	return &Collector{
		sources:      sources,
		store:        store,
		groupTimeout: groupTimeout,
		logger:       log,
	}
}

// Store exposes the series store fed by this collector.
func (c *Collector) Store() *SeriesStore {
	return c.store
}

// CollectSnapshot gathers all four metric groups (fan-out) and merges them
// into one snapshot (fan-in). Newly observed samples are appended to the
// series store. Never returns an error: partial collection failure is
// captured per group.
func (c *Collector) CollectSnapshot(ctx context.Context, windowHours int) *models.PerformanceSnapshot {
	now := time.Now()

	groups := []struct {
		name   string
		source GroupSource
	}{
		{"system", c.sources.System},
		{"application", c.sources.Application},
		{"storage", c.sources.Storage},
		{"business", c.sources.Business},
	}

	results := make([]models.MetricGroupResult, len(groups))

	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(idx int, name string, source GroupSource) {
			defer wg.Done()
			results[idx] = c.collectGroup(ctx, name, source, windowHours)
		}(i, g.name, g.source)
	}
	wg.Wait()

	snapshot := &models.PerformanceSnapshot{
		Timestamp:   now,
		WindowHours: windowHours,
		System:      results[0],
		Application: results[1],
		Storage:     results[2],
		Business:    results[3],
	}

	c.appendSamples(snapshot)
	return snapshot
}

// collectGroup runs one group source under its own timeout and recovers any
// panic into an error placeholder so one group can never poison a snapshot.
func (c *Collector) collectGroup(ctx context.Context, name string, source GroupSource, windowHours int) (result models.MetricGroupResult) {
	start := time.Now()
	result = models.MetricGroupResult{Timestamp: start}

	defer func() {
		if r := recover(); r != nil {
			result = models.MetricGroupResult{
				Error:     fmt.Sprintf("collection panic: %v", r),
				Timestamp: start,
			}
			c.logger.Error("Metric group collection panicked", "group", name, "panic", r)
			monitoring.RecordGroupCollection(name, time.Since(start), false)
		}
	}()

	if source == nil {
		result.Error = "source not configured"
		monitoring.RecordGroupCollection(name, time.Since(start), false)
		return result
	}

	groupCtx, cancel := context.WithTimeout(ctx, c.groupTimeout)
	defer cancel()

	values, err := source.Collect(groupCtx, windowHours)
	if err != nil {
		result.Error = err.Error()
		c.logger.Warn("Metric group collection failed", "group", name, "error", err)
		monitoring.RecordGroupCollection(name, time.Since(start), false)
		return result
	}

	result.Metrics = values
	monitoring.RecordGroupCollection(name, time.Since(start), true)
	return result
}

// appendSamples feeds every successfully collected sub-metric into the
// series store.
func (c *Collector) appendSamples(snapshot *models.PerformanceSnapshot) {
	if c.store == nil {
		return
	}
	for _, group := range []models.MetricGroupResult{
		snapshot.System, snapshot.Application, snapshot.Storage, snapshot.Business,
	} {
		if group.Failed() {
			continue
		}
		for name, value := range group.Metrics {
			c.store.AppendValue(name, value, "", snapshot.Timestamp)
		}
	}
}
