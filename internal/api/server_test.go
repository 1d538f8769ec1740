package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/alerts"
	"github.com/eduplatform/vigil-core/internal/analysis"
	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/predict"
	"github.com/eduplatform/vigil-core/internal/services"
	"github.com/eduplatform/vigil-core/pkg/cache"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

func newTestServer(t *testing.T) (*Server, *services.MonitorScheduler) {
	t.Helper()

	log := logger.NewNop()
	store := metrics.NewSeriesStore(100)
	sources := metrics.Sources{
		System: metrics.GroupSourceFunc(func(ctx context.Context, w int) (map[string]float64, error) {
			return map[string]float64{"cpu_usage_pct": 45}, nil
		}),
	}
	collector := metrics.NewCollector(sources, store, time.Second, log)

	thresholds := map[string]config.AdaptiveThresholdConfig{
		"high_cpu_usage": {
			Kind: config.ThresholdKindResource, Metric: "cpu_usage_pct",
			BaseThreshold: 80, RangeMin: 60, RangeMax: 95, LearningWindowHours: 6,
		},
	}
	calc := alerts.NewCalculator(thresholds, store)
	pipeline := alerts.NewPipeline(config.AlertingConfig{
		AggregationWindowMinutes: 5,
		MaxAlertsPerWindow:       10,
		SimilarityThreshold:      0.8,
		MinConfidence:            0.6,
		MinDurationSeconds:       30,
	}, calc, log)

	engine := predict.NewEngine(24, 0.3, log)
	notifications := services.NewNotificationService(config.IntegrationsConfig{}, log)
	scheduler := services.NewMonitorScheduler(
		collector, pipeline, engine, notifications,
		cache.NewNoop(), time.Hour,
		config.CollectionConfig{
			IntervalSeconds:     60,
			WindowHours:         1,
			GroupTimeoutSeconds: 1,
			SeriesCapacity:      100,
			BackoffSeconds:      1,
			MaxBackoffSeconds:   4,
		},
		thresholds,
		log,
	)

	bands := map[string]models.BaselineBand{
		"cpu_usage_pct": {Excellent: 50, Good: 70, Acceptable: 85, Polarity: models.LowerIsBetter},
	}
	analyzer := analysis.NewAnalyzer(
		collector,
		analysis.NewBaselineEvaluator(bands, nil),
		analysis.NewSLAComplianceChecker(nil),
		analysis.NewTrendAnalyzer(),
		engine,
		bands,
		24,
		log,
	)

	cfg := &config.Config{
		Environment: "development",
		Port:        8080,
		Collection:  config.CollectionConfig{WindowHours: 1},
		Thresholds:  thresholds,
	}
	return NewServer(cfg, log, cache.NewNoop(), pipeline, scheduler, analyzer), scheduler
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthDegradedWhenSchedulerStopped(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 while scheduler is stopped", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health response not JSON: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status field = %v, want degraded", body["status"])
	}
}

func TestHealthAndReadyWhileRunning(t *testing.T) {
	server, scheduler := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("scheduler start failed: %v", err)
	}
	defer scheduler.Stop()

	if rec := doRequest(t, server, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, server, "/ready"); rec.Code != http.StatusOK {
		t.Errorf("/ready = %d, want 200", rec.Code)
	}
}

func TestListThresholds(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, "/ops/thresholds")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Thresholds map[string]interface{} `json:"thresholds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("thresholds response not JSON: %v", err)
	}
	if _, ok := body.Thresholds["high_cpu_usage"]; !ok {
		t.Errorf("configured threshold missing from response: %v", body.Thresholds)
	}
}

func TestRunAnalysisEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, "/ops/analysis")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("analysis response not JSON: %v", err)
	}
	if len(body.Recommendations) == 0 {
		t.Error("analysis returned no recommendations")
	}
}

func TestRunAnalysisRejectsBadWindow(t *testing.T) {
	server, _ := newTestServer(t)

	for _, q := range []string{"0", "-3", "999", "abc"} {
		if rec := doRequest(t, server, "/ops/analysis?window_hours="+q); rec.Code != http.StatusBadRequest {
			t.Errorf("window_hours=%s: status = %d, want 400", q, rec.Code)
		}
	}
}
