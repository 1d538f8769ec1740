package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

func TestSeriesStoreAppendAndValues(t *testing.T) {
	store := NewSeriesStore(10)
	now := time.Now()

	store.AppendValue("cpu_usage_pct", 40, "percent", now)
	store.AppendValue("cpu_usage_pct", 50, "percent", now.Add(time.Minute))
	store.AppendValue("cpu_usage_pct", 60, "percent", now.Add(2*time.Minute))

	values := store.Values("cpu_usage_pct")
	if len(values) != 3 {
		t.Fatalf("Values length = %d, want 3", len(values))
	}
	// Oldest first.
	if values[0] != 40 || values[2] != 60 {
		t.Errorf("Values = %v, want chronological [40 50 60]", values)
	}
}

func TestSeriesStoreCapacityEviction(t *testing.T) {
	store := NewSeriesStore(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		store.AppendValue("m", float64(i), "", now.Add(time.Duration(i)*time.Second))
	}

	if got := store.Len("m"); got != 3 {
		t.Fatalf("Len = %d, want capacity 3", got)
	}

	values := store.Values("m")
	want := []float64{2, 3, 4}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("Values = %v, want oldest evicted %v", values, want)
			break
		}
	}
}

func TestSeriesStoreValuesSince(t *testing.T) {
	store := NewSeriesStore(10)
	base := time.Now()

	store.AppendValue("m", 1, "", base.Add(-2*time.Hour))
	store.AppendValue("m", 2, "", base.Add(-30*time.Minute))
	store.AppendValue("m", 3, "", base)

	got := store.ValuesSince("m", base.Add(-time.Hour))
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("ValuesSince = %v, want [2 3]", got)
	}
}

func TestSeriesStoreUnknownMetric(t *testing.T) {
	store := NewSeriesStore(10)

	if got := store.Values("missing"); len(got) != 0 {
		t.Errorf("Values for unknown metric = %v, want empty", got)
	}
	if got := store.Len("missing"); got != 0 {
		t.Errorf("Len for unknown metric = %d, want 0", got)
	}
}

func TestSeriesStoreSnapshotIsolation(t *testing.T) {
	store := NewSeriesStore(10)
	store.AppendValue("m", 1, "", time.Now())

	samples := store.Samples("m")
	samples[0].Value = 999

	if store.Values("m")[0] != 1 {
		t.Error("mutating a returned snapshot leaked into the store")
	}
}

// fakeCache records series in memory for persistence round trips.
type fakeCache struct {
	series map[string][]models.MetricSample
}

func newFakeCache() *fakeCache {
	return &fakeCache{series: make(map[string][]models.MetricSample)}
}

func (f *fakeCache) CacheMetricSeries(ctx context.Context, name string, samples []models.MetricSample, ttl time.Duration) error {
	f.series[name] = samples
	return nil
}

func (f *fakeCache) GetCachedMetricSeries(ctx context.Context, name string) ([]models.MetricSample, error) {
	return f.series[name], nil
}

func TestSeriesStoreCachePersistence(t *testing.T) {
	cache := newFakeCache()
	now := time.Now()

	source := NewSeriesStore(10)
	source.AppendValue("cpu_usage_pct", 42, "percent", now)
	source.AppendValue("error_rate_pct", 0.5, "percent", now)

	if err := source.SaveToCache(context.Background(), cache, time.Hour); err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}

	restored := NewSeriesStore(10)
	if err := restored.LoadFromCache(context.Background(), cache, []string{"cpu_usage_pct", "error_rate_pct"}); err != nil {
		t.Fatalf("LoadFromCache failed: %v", err)
	}

	if got := restored.Values("cpu_usage_pct"); len(got) != 1 || got[0] != 42 {
		t.Errorf("restored cpu series = %v, want [42]", got)
	}
	if got := restored.Values("error_rate_pct"); len(got) != 1 || got[0] != 0.5 {
		t.Errorf("restored error series = %v, want [0.5]", got)
	}
}
