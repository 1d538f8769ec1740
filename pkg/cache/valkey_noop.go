package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
)

// noopCache satisfies HistoryCache without any backing store. Every Get
// misses and every Set succeeds silently, so callers behave exactly as they
// would with an empty cache.
type noopCache struct{}

// NewNoop returns the degraded no-op cache.
func NewNoop() HistoryCache {
	return &noopCache{}
}

func (n *noopCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("key not found: %s", key)
}

func (n *noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *noopCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (n *noopCache) CacheMetricSeries(ctx context.Context, metricName string, samples []models.MetricSample, ttl time.Duration) error {
	return nil
}

func (n *noopCache) GetCachedMetricSeries(ctx context.Context, metricName string) ([]models.MetricSample, error) {
	return []models.MetricSample{}, nil
}

func (n *noopCache) HealthCheck(ctx context.Context) error {
	return nil
}
