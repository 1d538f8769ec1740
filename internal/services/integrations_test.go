package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduplatform/vigil-core/internal/config"
	"github.com/eduplatform/vigil-core/internal/models"
	"github.com/eduplatform/vigil-core/pkg/logger"
)

func testNotification(severity string) *models.Notification {
	return &models.Notification{
		ID:        "vigil-test",
		Type:      "alert",
		Title:     "high_cpu_usage (high priority)",
		Message:   "cpu_usage_pct at 91.00 (threshold 80.00)",
		Component: "alert-pipeline",
		Severity:  severity,
		Timestamp: time.Now(),
	}
}

func TestSendSlackNotification(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewIntegrationsService(config.IntegrationsConfig{
		Slack: config.SlackConfig{Enabled: true, WebhookURL: srv.URL, Channel: "#vigil-alerts"},
	}, logger.NewNop())

	if err := svc.SendSlackNotification(context.Background(), testNotification(models.SeverityCritical)); err != nil {
		t.Fatalf("SendSlackNotification failed: %v", err)
	}

	if payload["channel"] != "#vigil-alerts" {
		t.Errorf("channel = %v, want #vigil-alerts", payload["channel"])
	}
	attachments, ok := payload["attachments"].([]interface{})
	if !ok || len(attachments) != 1 {
		t.Fatalf("attachments = %v, want one entry", payload["attachments"])
	}
	if color := attachments[0].(map[string]interface{})["color"]; color != "danger" {
		t.Errorf("critical color = %v, want danger", color)
	}
}

func TestSendSlackNotificationNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewIntegrationsService(config.IntegrationsConfig{
		Slack: config.SlackConfig{Enabled: true, WebhookURL: srv.URL},
	}, logger.NewNop())

	if err := svc.SendSlackNotification(context.Background(), testNotification(models.SeverityHigh)); err == nil {
		t.Error("403 from webhook not reported as an error")
	}
}

func TestSendMSTeamsNotification(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewIntegrationsService(config.IntegrationsConfig{
		MSTeams: config.MSTeamsConfig{Enabled: true, WebhookURL: srv.URL},
	}, logger.NewNop())

	if err := svc.SendMSTeamsNotification(context.Background(), testNotification(models.SeverityHigh)); err != nil {
		t.Fatalf("SendMSTeamsNotification failed: %v", err)
	}

	if payload["@type"] != "MessageCard" {
		t.Errorf("@type = %v, want MessageCard", payload["@type"])
	}
	if payload["themeColor"] != "FFA500" {
		t.Errorf("high themeColor = %v, want FFA500", payload["themeColor"])
	}
}

func TestSendEmailNotificationRejectsBadConfig(t *testing.T) {
	svc := NewIntegrationsService(config.IntegrationsConfig{
		Email: config.EmailConfig{Enabled: true}, // host/port/from missing
	}, logger.NewNop())

	if err := svc.SendEmailNotification(context.Background(), testNotification(models.SeverityLow)); err == nil {
		t.Error("incomplete email config not reported as an error")
	}
}

func TestSanitizeEmailHeader(t *testing.T) {
	if _, err := sanitizeEmailHeader("recipient", "ops@example.com\r\nBcc: attacker@example.com"); err == nil {
		t.Error("header injection not rejected")
	}

	got, err := sanitizeEmailHeader("recipient", "  ops@example.com  ")
	if err != nil {
		t.Fatalf("clean header rejected: %v", err)
	}
	if got != "ops@example.com" {
		t.Errorf("sanitized = %q, want trimmed address", got)
	}
}

func TestDisabledChannelsAreNoOps(t *testing.T) {
	svc := NewIntegrationsService(config.IntegrationsConfig{}, logger.NewNop())
	n := testNotification(models.SeverityMedium)

	if err := svc.SendSlackNotification(context.Background(), n); err != nil {
		t.Errorf("disabled slack errored: %v", err)
	}
	if err := svc.SendMSTeamsNotification(context.Background(), n); err != nil {
		t.Errorf("disabled teams errored: %v", err)
	}
	if err := svc.SendEmailNotification(context.Background(), n); err != nil {
		t.Errorf("disabled email errored: %v", err)
	}
}
