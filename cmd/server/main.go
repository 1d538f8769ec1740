package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduplatform/vigil-core/internal/alerts"
	"github.com/eduplatform/vigil-core/internal/analysis"
	"github.com/eduplatform/vigil-core/internal/api"
	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/metrics"
	"github.com/eduplatform/vigil-core/internal/predict"
	"github.com/eduplatform/vigil-core/internal/services"
	"github.com/eduplatform/vigil-core/pkg/cache"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting VIGIL-CORE", "version", "v1.4.0", "environment", cfg.Environment)

	// Historical metric cache (Valkey); disabled config degrades to no-op.
	cacheTTL := time.Duration(cfg.Cache.TTL) * time.Second
	historyCache := cache.New(cfg.Cache.Enabled, cfg.Cache.Nodes, cfg.Cache.DB, cfg.Cache.Password, cacheTTL, logger)
	logger.Info("Historical metric cache initialized", "enabled", cfg.Cache.Enabled, "nodes", len(cfg.Cache.Nodes))

	// Metric collection
	store := metrics.NewSeriesStore(cfg.Collection.SeriesCapacity)
	sources := metrics.Sources{
		System: metrics.NewRuntimeSystemSource(),
	}
	groupTimeout := time.Duration(cfg.Collection.GroupTimeoutSeconds) * time.Second
	collector := metrics.NewCollector(sources, store, groupTimeout, logger)

	// Alert pipeline with adaptive thresholds
	calculator := alerts.NewCalculator(cfg.Thresholds, store)
	pipeline := alerts.NewPipeline(cfg.Alerting, calculator, logger)

	// Predictive failure engine
	engine := predict.NewEngine(cfg.Prediction.ForecastPeriods, cfg.Prediction.EWMAAlpha, logger)

	// On-demand comprehensive analysis (baseline, SLA, trends, risk)
	analyzer := analysis.NewAnalyzer(
		collector,
		analysis.NewBaselineEvaluator(cfg.Baselines, nil),
		analysis.NewSLAComplianceChecker(cfg.SLATargets),
		analysis.NewTrendAnalyzer(),
		engine,
		cfg.Baselines,
		cfg.Prediction.ForecastPeriods,
		logger,
	)

	// Notification delivery
	notifications := services.NewNotificationService(cfg.Integrations, logger)

	// Periodic monitor loop
	scheduler := services.NewMonitorScheduler(
		collector, pipeline, engine, notifications,
		historyCache, cacheTTL,
		cfg.Collection, cfg.Thresholds,
		logger,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Config hot-reload for alerting knobs; skipped when running purely on
	// defaults and environment variables.
	if configFile := config.UsedFile(); configFile != "" {
		watcher := config.NewWatcher(configFile, cfg, logger)
		watcher.Register(func(updated *config.Config) {
			pipeline.UpdateConfig(updated.Alerting)
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Config watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start monitor scheduler", "error", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Error("Scheduler stop failed", "error", err)
		}
	}()

	// Operational API server (health, metrics, introspection)
	apiServer := api.NewServer(cfg, logger, historyCache, pipeline, scheduler, analyzer)
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("VIGIL-CORE shutdown complete")
}
