// Package api exposes the operational HTTP surface: health, readiness,
// prometheus metrics and read-only pipeline introspection. Learner-facing
// endpoints belong to the host platform, not this subsystem.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduplatform/vigil-core/internal/alerts"
	"github.com/eduplatform/vigil-core/internal/analysis"
	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/monitoring"
	"github.com/eduplatform/vigil-core/internal/services"
	"github.com/eduplatform/vigil-core/pkg/cache"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.HistoryCache
	pipeline   *alerts.Pipeline
	scheduler  *services.MonitorScheduler
	analyzer   *analysis.Analyzer
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	historyCache cache.HistoryCache,
	pipeline *alerts.Pipeline,
	scheduler *services.MonitorScheduler,
	analyzer *analysis.Analyzer,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:    cfg,
		logger:    log,
		cache:     historyCache,
		pipeline:  pipeline,
		scheduler: scheduler,
		analyzer:  analyzer,
		router:    router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/ready", s.readinessCheck)

	ops := s.router.Group("/ops")
	ops.GET("/thresholds", s.listThresholds)
	ops.GET("/suppressions", s.listSuppressions)
	ops.GET("/scheduler", s.schedulerStatus)
	ops.GET("/analysis", s.runAnalysis)
}

func (s *Server) healthCheck(c *gin.Context) {
	status := s.scheduler.Status()

	cacheHealthy := true
	if err := s.cache.HealthCheck(c.Request.Context()); err != nil {
		cacheHealthy = false
	}

	overall := "healthy"
	code := http.StatusOK
	if !status.Running || !cacheHealthy {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	cacheState := "up"
	if !cacheHealthy {
		cacheState = "down"
	}

	c.JSON(code, gin.H{
		"status":    overall,
		"cache":     cacheState,
		"scheduler": status,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	if !s.scheduler.Status().Running {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (s *Server) listThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"thresholds": s.pipeline.AdaptiveThresholds()})
}

func (s *Server) listSuppressions(c *gin.Context) {
	ledger := s.pipeline.SuppressionLedger()
	c.JSON(http.StatusOK, gin.H{"count": len(ledger), "suppressions": ledger})
}

func (s *Server) schedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

// runAnalysis performs an on-demand comprehensive analysis. The window
// defaults to the collection window and is capped at 7 days.
func (s *Server) runAnalysis(c *gin.Context) {
	windowHours := s.config.Collection.WindowHours
	if raw := c.Query("window_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 168 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_hours must be an integer between 1 and 168"})
			return
		}
		windowHours = parsed
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), windowHours)
	if err != nil {
		s.logger.Error("Analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("VIGIL-CORE operational server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down VIGIL-CORE gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
