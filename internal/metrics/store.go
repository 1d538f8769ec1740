// Package metrics holds the bounded per-metric history store and the
// snapshot collector feeding it.
package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

// DefaultSeriesCapacity bounds each metric's history when no capacity is
// configured.
const DefaultSeriesCapacity = 1000

// seriesRing is a fixed-capacity FIFO ring of samples. Oldest entries are
// evicted once the ring is full.
type seriesRing struct {
	buf  []models.MetricSample
	head int // index of the oldest sample
	size int
}

func newSeriesRing(capacity int) *seriesRing {
	return &seriesRing{buf: make([]models.MetricSample, capacity)}
}

func (r *seriesRing) append(s models.MetricSample) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

// snapshot returns the samples oldest-first as a fresh slice.
func (r *seriesRing) snapshot() []models.MetricSample {
	out := make([]models.MetricSample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// SeriesStore owns every metric's bounded history. Writes are atomic per
// store; readers only ever see copied slices, never the live buffer.
type SeriesStore struct {
	capacity int

	mu     sync.RWMutex
	series map[string]*seriesRing
}

func NewSeriesStore(capacity int) *SeriesStore {
	if capacity <= 0 {
		capacity = DefaultSeriesCapacity
	}
	return &SeriesStore{
		capacity: capacity,
		series:   make(map[string]*seriesRing),
	}
}

// Append inserts one sample, evicting the oldest entry if the metric's
// series is at capacity.
func (s *SeriesStore) Append(sample models.MetricSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.series[sample.Name]
	if !ok {
		ring = newSeriesRing(s.capacity)
		s.series[sample.Name] = ring
	}
	ring.append(sample)
}

// AppendValue is a convenience for samples observed during collection.
func (s *SeriesStore) AppendValue(name string, value float64, unit string, ts time.Time) {
	s.Append(models.MetricSample{Name: name, Value: value, Unit: unit, Timestamp: ts})
}

// Samples returns a chronological copy of one metric's history.
func (s *SeriesStore) Samples(name string) []models.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, ok := s.series[name]
	if !ok {
		return []models.MetricSample{}
	}
	return ring.snapshot()
}

// Values returns just the numeric values of one metric's history,
// oldest first.
func (s *SeriesStore) Values(name string) []float64 {
	samples := s.Samples(name)
	out := make([]float64, len(samples))
	for i, smp := range samples {
		out[i] = smp.Value
	}
	return out
}

// ValuesSince returns the values observed at or after the cutoff.
func (s *SeriesStore) ValuesSince(name string, cutoff time.Time) []float64 {
	samples := s.Samples(name)
	out := make([]float64, 0, len(samples))
	for _, smp := range samples {
		if !smp.Timestamp.Before(cutoff) {
			out = append(out, smp.Value)
		}
	}
	return out
}

// Len returns the current history length for one metric.
func (s *SeriesStore) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, ok := s.series[name]
	if !ok {
		return 0
	}
	return ring.size
}

// Names returns the tracked metric names, sorted for deterministic iteration.
func (s *SeriesStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cache is the subset of the history cache the store needs. Declared here so
// the store depends on behavior, not on pkg/cache.
type Cache interface {
	CacheMetricSeries(ctx context.Context, metricName string, samples []models.MetricSample, ttl time.Duration) error
	GetCachedMetricSeries(ctx context.Context, metricName string) ([]models.MetricSample, error)
}

// LoadFromCache seeds the store from previously persisted histories. A cache
// miss yields empty history, never an error.
func (s *SeriesStore) LoadFromCache(ctx context.Context, cache Cache, names []string) error {
	for _, name := range names {
		samples, err := cache.GetCachedMetricSeries(ctx, name)
		if err != nil {
			return err
		}
		for _, smp := range samples {
			s.Append(smp)
		}
	}
	return nil
}

// SaveToCache persists every tracked series. Used on shutdown and once per
// collection tick.
func (s *SeriesStore) SaveToCache(ctx context.Context, cache Cache, ttl time.Duration) error {
	for _, name := range s.Names() {
		if err := cache.CacheMetricSeries(ctx, name, s.Samples(name), ttl); err != nil {
			return err
		}
	}
	return nil
}
