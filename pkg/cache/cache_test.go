package cache

import (
	"context"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

func TestNewDisabledReturnsNoop(t *testing.T) {
	c := New(false, []string{"localhost:6379"}, 0, "", time.Hour, logger.NewNop())
	if c == nil {
		t.Fatal("disabled cache should degrade to a no-op, not nil")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("noop health check failed: %v", err)
	}
}

func TestNoopGetMisses(t *testing.T) {
	c := NewNoop()

	if err := c.Set(context.Background(), "k", "v", time.Minute); err != nil {
		t.Fatalf("noop Set failed: %v", err)
	}
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Error("noop Get should always miss")
	}
}

func TestNoopMetricSeriesRoundTrip(t *testing.T) {
	c := NewNoop()
	samples := []models.MetricSample{
		{Name: "cpu_usage_pct", Value: 42, Timestamp: time.Now()},
	}

	if err := c.CacheMetricSeries(context.Background(), "cpu_usage_pct", samples, time.Hour); err != nil {
		t.Fatalf("noop CacheMetricSeries failed: %v", err)
	}

	got, err := c.GetCachedMetricSeries(context.Background(), "cpu_usage_pct")
	if err != nil {
		t.Fatalf("noop GetCachedMetricSeries failed: %v", err)
	}
	// A miss is empty history, never an error: restart without a cache
	// starts from scratch.
	if len(got) != 0 {
		t.Errorf("noop returned %d samples, want 0", len(got))
	}
}

func TestNewEnabledWithoutNodesDegrades(t *testing.T) {
	c := New(true, nil, 0, "", time.Hour, logger.NewNop())
	if c == nil {
		t.Fatal("cache without nodes should degrade to a no-op, not nil")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("degraded cache health check failed: %v", err)
	}
}
