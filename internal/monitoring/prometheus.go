// Package monitoring provides Prometheus self-metrics for VIGIL-CORE.
//
// Usage:
//
//  1. Setup metrics on the operational router in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Record metrics from the pipeline and collectors:
//
//	monitoring.RecordGroupCollection("system", time.Since(start), true)
//	monitoring.RecordCacheOperation("get", "hit")
//	monitoring.RecordPipelineRun(len(raws), time.Since(start))
//	monitoring.RecordSuppression("threshold-not-met")
//	monitoring.RecordNotification("slack", "alert", true)
//	monitoring.RecordRiskAssessment("high")
package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	alertsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_alerts_processed_total",
			Help: "Total number of alerts entering the pipeline",
		},
		[]string{"source", "severity"},
	)

	alertsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_alerts_suppressed_total",
			Help: "Total number of alerts suppressed, by ledger reason",
		},
		[]string{"reason"},
	)

	pipelineRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_core_pipeline_runs_total",
			Help: "Total number of alert pipeline runs",
		},
	)

	pipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_core_pipeline_duration_seconds",
			Help:    "Alert pipeline run duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	groupCollectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_group_collections_total",
			Help: "Total number of metric group collections",
		},
		[]string{"group", "status"},
	)

	groupCollectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_core_group_collection_duration_seconds",
			Help:    "Metric group collection duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"group"},
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_cache_operations_total",
			Help: "Total number of historical-cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error, success
	)

	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_notifications_sent_total",
			Help: "Total number of notification deliveries attempted",
		},
		[]string{"channel", "type", "success"},
	)

	riskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_risk_assessments_total",
			Help: "Total number of predictive risk assessments, by level",
		},
		[]string{"level"},
	)

	activeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_core_active_alerts",
			Help: "Number of alerts currently tracked in the active-alert map",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// SetupPrometheusMetrics registers VIGIL-CORE metrics and exposes the
// /metrics endpoint on the operational router.
func SetupPrometheusMetrics(router gin.IRoutes) {
	// Build info (ignore if already registered)
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vigil_core_build_info",
		Help: "Build information for VIGIL-CORE",
		ConstLabels: prometheus.Labels{
			"version":   "v1.4.0",
			"component": "vigil-core",
		},
	}, func() float64 { return 1 }))

	_ = prometheus.Register(alertsProcessedTotal)
	_ = prometheus.Register(alertsSuppressedTotal)
	_ = prometheus.Register(pipelineRunsTotal)
	_ = prometheus.Register(pipelineDuration)
	_ = prometheus.Register(groupCollectionsTotal)
	_ = prometheus.Register(groupCollectionDuration)
	_ = prometheus.Register(cacheOperationsTotal)
	_ = prometheus.Register(notificationsSentTotal)
	_ = prometheus.Register(riskAssessmentsTotal)
	_ = prometheus.Register(activeAlerts)
	_ = prometheus.Register(errorsTotal)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RecordAlertProcessed records one alert entering the pipeline.
func RecordAlertProcessed(source, severity string) {
	alertsProcessedTotal.WithLabelValues(source, severity).Inc()
}

// RecordSuppression records one ledger append.
func RecordSuppression(reason string) {
	alertsSuppressedTotal.WithLabelValues(reason).Inc()
}

// RecordPipelineRun records one full pipeline run.
func RecordPipelineRun(duration time.Duration) {
	pipelineRunsTotal.Inc()
	pipelineDuration.Observe(duration.Seconds())
}

// RecordGroupCollection records one metric group collection.
func RecordGroupCollection(group string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("collection", group).Inc()
	}

	groupCollectionsTotal.WithLabelValues(group, status).Inc()
	groupCollectionDuration.WithLabelValues(group).Observe(duration.Seconds())
}

// RecordCacheOperation records historical-cache operation metrics.
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// RecordNotification records one delivery attempt.
func RecordNotification(channel, notificationType string, success bool) {
	s := "true"
	if !success {
		s = "false"
		errorsTotal.WithLabelValues("notification", channel).Inc()
	}
	notificationsSentTotal.WithLabelValues(channel, notificationType, s).Inc()
}

// RecordRiskAssessment records one predictive assessment by risk level.
func RecordRiskAssessment(level string) {
	riskAssessmentsTotal.WithLabelValues(level).Inc()
}

// SetActiveAlerts updates the active-alert gauge.
func SetActiveAlerts(n int) {
	activeAlerts.Set(float64(n))
}
