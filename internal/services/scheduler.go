package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eduplatform/vigil-core/internal/alerts"
	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/predict"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// SchedulerStatus is a point-in-time snapshot of the monitor loop, surfaced
// on the health endpoint.
type SchedulerStatus struct {
	Running             bool      `json:"running"`
	TicksTotal          int       `json:"ticks_total"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastTick            time.Time `json:"last_tick"`
	LastError           string    `json:"last_error,omitempty"`
}

// MonitorScheduler drives the monitoring loop: collect a snapshot, derive
// threshold candidates, run the alert pipeline, scan for predictive risk and
// persist histories. One tick at a time; a stop request lets the in-flight
// tick finish and prevents the next one. Failed ticks re-arm the timer with
// exponential backoff instead of hammering a struggling backend.
type MonitorScheduler struct {
	collector     *metrics.Collector
	store         *metrics.SeriesStore
	pipeline      *alerts.Pipeline
	engine        *predict.Engine
	notifications *NotificationService
	cache         metrics.Cache
	cacheTTL      time.Duration
	cfg           config.CollectionConfig
	thresholds    map[string]config.AdaptiveThresholdConfig
	logger        logger.Logger

	stateMutex sync.RWMutex
	status     SchedulerStatus

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewMonitorScheduler(
	collector *metrics.Collector,
	pipeline *alerts.Pipeline,
	engine *predict.Engine,
	notifications *NotificationService,
	cache metrics.Cache,
	cacheTTL time.Duration,
	cfg config.CollectionConfig,
	thresholds map[string]config.AdaptiveThresholdConfig,
	logger logger.Logger,
) *MonitorScheduler {
	return &MonitorScheduler{
		collector:     collector,
		store:         collector.Store(),
		pipeline:      pipeline,
		engine:        engine,
		notifications: notifications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		cfg:           cfg,
		thresholds:    thresholds,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Start loads persisted histories and launches the monitor loop.
func (s *MonitorScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor scheduler",
		"intervalSeconds", s.cfg.IntervalSeconds,
		"windowHours", s.cfg.WindowHours)

	if err := s.store.LoadFromCache(ctx, s.cache, s.trackedSeries()); err != nil {
		s.logger.Warn("Failed to load metric histories from cache", "error", err)
	}

	s.setRunning(true)
	s.wg.Add(1)
	go s.monitorLoop(ctx)

	return nil
}

// Stop halts the loop, waits for the in-flight tick, persists histories and
// drains pending notifications.
func (s *MonitorScheduler) Stop() error {
	s.logger.Info("Stopping monitor scheduler")

	close(s.stopCh)
	s.wg.Wait()
	s.setRunning(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.SaveToCache(ctx, s.cache, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to persist metric histories to cache", "error", err)
	}
	s.notifications.Wait()

	s.logger.Info("Monitor scheduler stopped")
	return nil
}

// Status returns a copy of the loop state.
func (s *MonitorScheduler) Status() SchedulerStatus {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.status
}

// RunOnce executes a single tick on demand, outside the periodic schedule.
func (s *MonitorScheduler) RunOnce(ctx context.Context) (*models.PipelineResult, error) {
	return s.tick(ctx)
}

func (s *MonitorScheduler) monitorLoop(ctx context.Context) {
	defer s.wg.Done()

	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	backoff := time.Duration(s.cfg.BackoffSeconds) * time.Second
	maxBackoff := time.Duration(s.cfg.MaxBackoffSeconds) * time.Second
	next := interval

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-timer.C:
			if _, err := s.tick(ctx); err != nil {
				s.logger.Error("Monitor tick failed", "error", err, "retryIn", backoff)
				next = backoff
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			} else {
				next = interval
				backoff = time.Duration(s.cfg.BackoffSeconds) * time.Second
			}
			timer.Reset(next)
		}
	}
}

// tick runs one full monitoring cycle.
func (s *MonitorScheduler) tick(ctx context.Context) (*models.PipelineResult, error) {
	snapshot := s.collector.CollectSnapshot(ctx, s.cfg.WindowHours)

	raws := s.thresholdCandidates(snapshot)
	raws = append(raws, s.predictiveCandidates()...)

	result, err := s.pipeline.ProcessAlerts(ctx, raws)
	if err != nil {
		s.recordTick(err)
		return nil, fmt.Errorf("monitor tick: %w", err)
	}

	s.notifications.ExecutePlan(ctx, result.NotificationPlan)

	if err := s.store.SaveToCache(ctx, s.cache, s.cacheTTL); err != nil {
		s.recordTick(err)
		return result, fmt.Errorf("monitor tick: persist histories: %w", err)
	}

	s.recordTick(nil)
	return result, nil
}

// thresholdCandidates turns the snapshot into one raw alert per configured
// metric type present in the snapshot. The pipeline owns the breach decision;
// non-breaching candidates land in its suppression ledger.
func (s *MonitorScheduler) thresholdCandidates(snapshot *models.PerformanceSnapshot) []models.RawAlert {
	raws := make([]models.RawAlert, 0, len(s.thresholds))
	for metricType, cfg := range s.thresholds {
		seriesName := cfg.Metric
		if seriesName == "" {
			seriesName = metricType
		}
		value, ok := snapshot.Lookup(seriesName)
		if !ok {
			continue
		}
		raws = append(raws, models.RawAlert{
			Type:         metricType,
			Severity:     severityForBreach(value, cfg),
			Message:      fmt.Sprintf("%s at %.2f (threshold %.2f)", seriesName, value, cfg.BaseThreshold),
			CurrentValue: value,
			Threshold:    cfg.BaseThreshold,
			Source:       models.AlertSourceThreshold,
			Timestamp:    snapshot.Timestamp,
		})
	}
	return raws
}

// predictiveCandidates scans every tracked series with the failure engine and
// emits predictive alerts for actionable risk levels.
func (s *MonitorScheduler) predictiveCandidates() []models.RawAlert {
	var raws []models.RawAlert
	now := time.Now()

	for metricType, cfg := range s.thresholds {
		seriesName := cfg.Metric
		if seriesName == "" {
			seriesName = metricType
		}
		history := s.store.Values(seriesName)
		assessment := s.engine.PredictFailure(seriesName, history, 0)
		if assessment.Status != models.RiskStatusOK {
			continue
		}
		if assessment.RiskLevel != models.RiskHigh && assessment.RiskLevel != models.RiskCritical {
			continue
		}

		severity := models.SeverityHigh
		if assessment.RiskLevel == models.RiskCritical {
			severity = models.SeverityCritical
		}

		message := fmt.Sprintf("predicted failure risk for %s (score %.0f)", seriesName, assessment.RiskScore)
		if assessment.PeriodsToBreach > 0 {
			message = fmt.Sprintf("%s, threshold breach expected within %d periods", message, assessment.PeriodsToBreach)
		}

		// The risk score doubles as the breach value against the actionable
		// floor, so predictive alerts pass threshold evaluation as-is.
		raws = append(raws, models.RawAlert{
			Type:         fmt.Sprintf("predicted_%s", metricType),
			Severity:     severity,
			Message:      message,
			CurrentValue: assessment.RiskScore,
			Threshold:    50,
			Source:       models.AlertSourcePredictive,
			Timestamp:    now,
		})
	}
	return raws
}

// trackedSeries lists the series names the threshold seeds reference, used
// to warm the store from cache on start.
func (s *MonitorScheduler) trackedSeries() []string {
	names := make([]string, 0, len(s.thresholds))
	for metricType, cfg := range s.thresholds {
		if cfg.Metric != "" {
			names = append(names, cfg.Metric)
			continue
		}
		names = append(names, metricType)
	}
	return names
}

// severityForBreach grades a candidate by how far the value sits above its
// configured range.
func severityForBreach(value float64, cfg config.AdaptiveThresholdConfig) string {
	switch {
	case value >= cfg.RangeMax:
		return models.SeverityCritical
	case value >= cfg.BaseThreshold*1.2:
		return models.SeverityHigh
	case value >= cfg.BaseThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func (s *MonitorScheduler) recordTick(err error) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	s.status.TicksTotal++
	s.status.LastTick = time.Now()
	if err != nil {
		s.status.ConsecutiveFailures++
		s.status.LastError = err.Error()
	} else {
		s.status.ConsecutiveFailures = 0
		s.status.LastError = ""
	}
}

func (s *MonitorScheduler) setRunning(running bool) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	s.status.Running = running
}
