// Package cache provides the Valkey-backed historical metric cache. Metric
// series are persisted across process restarts under metric_history:<name>
// keys; when the cache is disabled or unreachable the subsystem degrades to
// empty history rather than erroring.
package cache

import (
	"context"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// HistoryCache is the abstract cache collaborator. Absence of a key is
// reported as an error by Get; callers treat it as empty history.
type HistoryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// CacheMetricSeries persists one metric's sample history.
	CacheMetricSeries(ctx context.Context, metricName string, samples []models.MetricSample, ttl time.Duration) error

	// GetCachedMetricSeries restores one metric's sample history. Returns an
	// empty slice (not an error) when nothing is cached.
	GetCachedMetricSeries(ctx context.Context, metricName string) ([]models.MetricSample, error)

	HealthCheck(ctx context.Context) error
}

// New connects to a single Valkey node, falling back to the no-op cache when
// the cache is disabled or unreachable.
func New(enabled bool, nodes []string, db int, password string, defaultTTL time.Duration, log logger.Logger) HistoryCache {
	if !enabled || len(nodes) == 0 {
		log.Warn("Historical metric cache disabled, using no-op cache")
		return NewNoop()
	}

	c, err := NewValkeySingle(nodes[0], db, password, defaultTTL)
	if err != nil {
		log.Warn("Valkey unreachable, degrading to no-op cache", "error", err)
		return NewNoop()
	}

	log.Info("Historical metric cache initialized", "node", nodes[0])
	return c
}
