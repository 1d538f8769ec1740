package config

import (
	"github.com/eduplatform/vigil-core/internal/models"
)

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Integrations IntegrationsConfig `mapstructure:"integrations" yaml:"integrations"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring" yaml:"monitoring"`
	Collection   CollectionConfig   `mapstructure:"collection" yaml:"collection"`
	Alerting     AlertingConfig     `mapstructure:"alerting" yaml:"alerting"`
	Prediction   PredictionConfig   `mapstructure:"prediction" yaml:"prediction"`

	// Thresholds seeds the adaptive threshold calculator per metric type.
	// Static configuration: read at runtime, never mutated.
	Thresholds map[string]AdaptiveThresholdConfig `mapstructure:"thresholds" yaml:"thresholds"`

	// Baselines holds the tiered quality bands per tracked metric.
	Baselines map[string]models.BaselineBand `mapstructure:"baselines" yaml:"baselines"`

	// SLATargets are the committed service levels checked each analysis.
	SLATargets []models.SLATarget `mapstructure:"sla_targets" yaml:"sla_targets"`
}

// CacheConfig handles the Valkey-backed historical metric cache. When
// disabled (or unreachable) the subsystem degrades to empty history.
type CacheConfig struct {
	Enabled  bool     `mapstructure:"enabled" yaml:"enabled"`
	Nodes    []string `mapstructure:"nodes" yaml:"nodes"`
	TTL      int      `mapstructure:"ttl" yaml:"ttl"` // seconds
	Password string   `mapstructure:"password" yaml:"password"`
	DB       int      `mapstructure:"db" yaml:"db"`
}

// IntegrationsConfig handles notification delivery integrations.
type IntegrationsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack" yaml:"slack"`
	MSTeams MSTeamsConfig `mapstructure:"ms_teams" yaml:"ms_teams"`
	Email   EmailConfig   `mapstructure:"email" yaml:"email"`
}

type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Channel    string `mapstructure:"channel" yaml:"channel"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

type MSTeamsConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

type EmailConfig struct {
	SMTPHost    string   `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort    int      `mapstructure:"smtp_port" yaml:"smtp_port"`
	Username    string   `mapstructure:"username" yaml:"username"`
	Password    string   `mapstructure:"password" yaml:"password"`
	FromAddress string   `mapstructure:"from_address" yaml:"from_address"`
	Recipients  []string `mapstructure:"recipients" yaml:"recipients"`
	Enabled     bool     `mapstructure:"enabled" yaml:"enabled"`
}

// MonitoringConfig handles self-monitoring of the subsystem itself.
type MonitoringConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	MetricsPath       string `mapstructure:"metrics_path" yaml:"metrics_path"`
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled" yaml:"prometheus_enabled"`
}

// CollectionConfig drives the periodic metric collection loop.
type CollectionConfig struct {
	IntervalSeconds     int `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	WindowHours         int `mapstructure:"window_hours" yaml:"window_hours"`
	GroupTimeoutSeconds int `mapstructure:"group_timeout_seconds" yaml:"group_timeout_seconds"`
	SeriesCapacity      int `mapstructure:"series_capacity" yaml:"series_capacity"`
	BackoffSeconds      int `mapstructure:"backoff_seconds" yaml:"backoff_seconds"`
	MaxBackoffSeconds   int `mapstructure:"max_backoff_seconds" yaml:"max_backoff_seconds"`
}

// AlertingConfig carries the alert pipeline's tunable knobs.
type AlertingConfig struct {
	AggregationWindowMinutes int     `mapstructure:"aggregation_window_minutes" yaml:"aggregation_window_minutes"`
	MaxAlertsPerWindow       int     `mapstructure:"max_alerts_per_window" yaml:"max_alerts_per_window"`
	SimilarityThreshold      float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	MinConfidence            float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MinDurationSeconds       int     `mapstructure:"min_duration_seconds" yaml:"min_duration_seconds"`

	// BusinessImpact maps alert type to its impact weight (0..1) for priority
	// scoring. Defaults carry the fixed policy; config may override per type.
	BusinessImpact map[string]float64 `mapstructure:"business_impact" yaml:"business_impact"`
}

// PredictionConfig drives the predictive failure engine.
type PredictionConfig struct {
	ForecastPeriods    int     `mapstructure:"forecast_periods" yaml:"forecast_periods"`
	EWMAAlpha          float64 `mapstructure:"ewma_alpha" yaml:"ewma_alpha"`
	CapacityGrowthPct  float64 `mapstructure:"capacity_growth_pct" yaml:"capacity_growth_pct"`
	CapacityWarningPct float64 `mapstructure:"capacity_warning_pct" yaml:"capacity_warning_pct"`
}

// Threshold kinds select the adaptive formula applied to a metric's history.
const (
	ThresholdKindResource  = "resource"   // CPU / memory utilization
	ThresholdKindLatency   = "latency"    // response / query times
	ThresholdKindErrorRate = "error_rate" // error percentages
	ThresholdKindStatic    = "static"     // no adaptive formula
)

// AdaptiveThresholdConfig seeds one metric type's dynamic threshold. Metric
// names the series the threshold learns from.
type AdaptiveThresholdConfig struct {
	Kind                string  `mapstructure:"kind" yaml:"kind"`
	Metric              string  `mapstructure:"metric" yaml:"metric"`
	BaseThreshold       float64 `mapstructure:"base_threshold" yaml:"base_threshold"`
	RangeMin            float64 `mapstructure:"range_min" yaml:"range_min"`
	RangeMax            float64 `mapstructure:"range_max" yaml:"range_max"`
	LearningWindowHours int     `mapstructure:"learning_window_hours" yaml:"learning_window_hours"`
}
