// Package services hosts the long-running collaborators around the pipeline:
// notification delivery and the periodic monitor scheduler.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/internal/monitoring"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

// scheduledDelay batches non-urgent notifications instead of paging on every
// pipeline run.
const scheduledDelay = 5 * time.Minute

// NotificationService executes notification plans produced by the alert
// pipeline. Delivery runs asynchronously and never blocks or fails a
// pipeline run; channel errors are logged and counted only.
type NotificationService struct {
	integrations *IntegrationsService
	logger       logger.Logger
	wg           sync.WaitGroup
}

func NewNotificationService(cfg config.IntegrationsConfig, logger logger.Logger) *NotificationService {
	return &NotificationService{
		integrations: NewIntegrationsService(cfg, logger),
		logger:       logger,
	}
}

// ExecutePlan dispatches a pipeline run's notification plan: immediate
// entries fire right away, scheduled entries after the batching delay,
// log-only entries are recorded and go nowhere. Returns once dispatch
// goroutines are started.
func (s *NotificationService) ExecutePlan(ctx context.Context, plan models.NotificationPlan) {
	for _, planned := range plan.Immediate {
		s.dispatchAsync(ctx, planned, 0)
	}
	for _, planned := range plan.Scheduled {
		s.dispatchAsync(ctx, planned, scheduledDelay)
	}
	for _, planned := range plan.LogOnly {
		s.logger.Info("Alert recorded without notification",
			"alertId", planned.AlertID,
			"type", planned.AlertType,
			"priority", planned.PriorityLevel,
		)
	}
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) dispatchAsync(ctx context.Context, planned models.PlannedNotification, delay time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if err := s.SendNotification(ctx, notificationFromPlan(planned)); err != nil {
			s.logger.Error("Notification delivery failed",
				"alertId", planned.AlertID,
				"type", planned.AlertType,
				"error", err,
			)
		}
	}()
}

// SendNotification dispatches one notification to every configured
// integration. A partial failure is reported but does not abort the other
// channels.
func (s *NotificationService) SendNotification(ctx context.Context, notification *models.Notification) error {
	var failures int

	if err := s.integrations.SendSlackNotification(ctx, notification); err != nil {
		s.logger.Error("Slack notification failed", "error", err)
		failures++
		monitoring.RecordNotification("slack", notification.Type, false)
	} else {
		monitoring.RecordNotification("slack", notification.Type, true)
	}

	if err := s.integrations.SendMSTeamsNotification(ctx, notification); err != nil {
		s.logger.Error("MS Teams notification failed", "error", err)
		failures++
		monitoring.RecordNotification("teams", notification.Type, false)
	} else {
		monitoring.RecordNotification("teams", notification.Type, true)
	}

	if err := s.integrations.SendEmailNotification(ctx, notification); err != nil {
		s.logger.Error("Email notification failed", "error", err)
		failures++
		monitoring.RecordNotification("email", notification.Type, false)
	} else {
		monitoring.RecordNotification("email", notification.Type, true)
	}

	if failures > 0 {
		return fmt.Errorf("notification partially failed: %d/3 integrations failed", failures)
	}

	return nil
}

// notificationFromPlan converts a routed pipeline notification into the
// channel-facing shape.
func notificationFromPlan(planned models.PlannedNotification) *models.Notification {
	notificationType := "alert"
	if planned.AlertType != "" && planned.PriorityLevel == models.PriorityCritical {
		notificationType = "escalation"
	}

	return &models.Notification{
		ID:        fmt.Sprintf("vigil-%s", planned.AlertID),
		Type:      notificationType,
		Title:     fmt.Sprintf("%s (%s priority)", planned.AlertType, planned.PriorityLevel),
		Message:   planned.Message,
		Component: "alert-pipeline",
		Severity:  planned.Severity,
		Timestamp: planned.CreatedAt,
	}
}
