package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/vigil/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("VIGIL")

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)
	usedConfigFile = v.ConfigFileUsed()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

var usedConfigFile string

// UsedFile returns the path of the config file the last Load resolved, empty
// when running on defaults and environment variables only.
func UsedFile() string {
	return usedConfigFile
}

// setDefaults sets reasonable default values. The business-impact and
// baseline-band defaults carry the fixed alerting policy; a config file may
// override individual entries.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// Historical metric cache (Valkey)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.nodes", []string{"localhost:6379"})
	v.SetDefault("cache.ttl", 86400) // 24 hours
	v.SetDefault("cache.db", 0)

	// Integrations
	v.SetDefault("integrations.slack.enabled", false)
	v.SetDefault("integrations.ms_teams.enabled", false)
	v.SetDefault("integrations.email.enabled", false)
	v.SetDefault("integrations.email.smtp_port", 587)

	// Self-monitoring
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.prometheus_enabled", true)

	// Collection loop
	v.SetDefault("collection.interval_seconds", 60)
	v.SetDefault("collection.window_hours", 1)
	v.SetDefault("collection.group_timeout_seconds", 10)
	v.SetDefault("collection.series_capacity", 1000)
	v.SetDefault("collection.backoff_seconds", 5)
	v.SetDefault("collection.max_backoff_seconds", 300)

	// Alert pipeline knobs
	v.SetDefault("alerting.aggregation_window_minutes", 5)
	v.SetDefault("alerting.max_alerts_per_window", 10)
	v.SetDefault("alerting.similarity_threshold", 0.8)
	v.SetDefault("alerting.min_confidence", 0.6)
	v.SetDefault("alerting.min_duration_seconds", 30)
	v.SetDefault("alerting.business_impact", map[string]float64{
		"high_error_rate":    0.9,
		"high_response_time": 0.8,
		"slow_queries":       0.7,
		"high_memory_usage":  0.6,
		"high_cpu_usage":     0.6,
		"low_disk_space":     0.7,
	})

	// Prediction
	v.SetDefault("prediction.forecast_periods", 24)
	v.SetDefault("prediction.ewma_alpha", 0.3)
	v.SetDefault("prediction.capacity_growth_pct", 5.0)
	v.SetDefault("prediction.capacity_warning_pct", 80.0)

	// Adaptive threshold seeds. Learning windows vary with metric volatility:
	// noisy resource metrics learn over short windows, error rates over longer.
	v.SetDefault("thresholds.high_cpu_usage", map[string]interface{}{
		"metric": "cpu_usage_pct", "kind": ThresholdKindResource, "base_threshold": 80.0,
		"range_min": 60.0, "range_max": 95.0, "learning_window_hours": 6,
	})
	v.SetDefault("thresholds.high_memory_usage", map[string]interface{}{
		"metric": "memory_usage_pct", "kind": ThresholdKindResource, "base_threshold": 85.0,
		"range_min": 70.0, "range_max": 95.0, "learning_window_hours": 6,
	})
	v.SetDefault("thresholds.high_response_time", map[string]interface{}{
		"metric": "api_response_time_ms", "kind": ThresholdKindLatency, "base_threshold": 1000.0,
		"range_min": 500.0, "range_max": 5000.0, "learning_window_hours": 12,
	})
	v.SetDefault("thresholds.slow_queries", map[string]interface{}{
		"metric": "db_query_time_ms", "kind": ThresholdKindLatency, "base_threshold": 500.0,
		"range_min": 200.0, "range_max": 2000.0, "learning_window_hours": 12,
	})
	v.SetDefault("thresholds.high_error_rate", map[string]interface{}{
		"metric": "error_rate_pct", "kind": ThresholdKindErrorRate, "base_threshold": 5.0,
		"range_min": 1.0, "range_max": 20.0, "learning_window_hours": 24,
	})

	// Baseline quality bands for the tracked metrics.
	v.SetDefault("baselines.api_response_time_ms", map[string]interface{}{
		"excellent": 200.0, "good": 500.0, "acceptable": 1000.0, "polarity": "lower_is_better",
	})
	v.SetDefault("baselines.db_query_time_ms", map[string]interface{}{
		"excellent": 50.0, "good": 200.0, "acceptable": 500.0, "polarity": "lower_is_better",
	})
	v.SetDefault("baselines.memory_usage_pct", map[string]interface{}{
		"excellent": 60.0, "good": 75.0, "acceptable": 85.0, "polarity": "lower_is_better",
	})
	v.SetDefault("baselines.cpu_usage_pct", map[string]interface{}{
		"excellent": 50.0, "good": 70.0, "acceptable": 85.0, "polarity": "lower_is_better",
	})
	v.SetDefault("baselines.error_rate_pct", map[string]interface{}{
		"excellent": 0.1, "good": 1.0, "acceptable": 5.0, "polarity": "lower_is_better",
	})

	// SLA targets
	v.SetDefault("sla_targets", []map[string]interface{}{
		{"name": "availability", "metric": "availability_pct", "target": 99.9, "direction": "at_least"},
		{"name": "response_time_p95", "metric": "api_response_time_p95_ms", "target": 1000.0, "direction": "at_most"},
		{"name": "error_rate", "metric": "error_rate_pct", "target": 1.0, "direction": "at_most"},
	})
}

// overrideWithEnvVars explicitly handles environment variable overrides
func overrideWithEnvVars(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	// Valkey cache nodes
	if cacheNodes := os.Getenv("VALKEY_CACHE_NODES"); cacheNodes != "" {
		nodes := strings.Split(cacheNodes, ",")
		for i, node := range nodes {
			nodes[i] = strings.TrimSpace(node)
		}
		v.Set("cache.nodes", nodes)
	}

	if cacheTTL := os.Getenv("CACHE_TTL"); cacheTTL != "" {
		if ttl, err := strconv.Atoi(cacheTTL); err == nil {
			v.Set("cache.ttl", ttl)
		}
	}

	// External integrations
	if slackWebhook := os.Getenv("SLACK_WEBHOOK_URL"); slackWebhook != "" {
		v.Set("integrations.slack.webhook_url", slackWebhook)
		v.Set("integrations.slack.enabled", true)
	}

	if teamsWebhook := os.Getenv("TEAMS_WEBHOOK_URL"); teamsWebhook != "" {
		v.Set("integrations.ms_teams.webhook_url", teamsWebhook)
		v.Set("integrations.ms_teams.enabled", true)
	}

	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		v.Set("integrations.email.smtp_host", smtpHost)
		v.Set("integrations.email.enabled", true)
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	if config.Cache.Enabled && len(config.Cache.Nodes) == 0 {
		return fmt.Errorf("at least one Valkey cache node is required when the cache is enabled")
	}

	if config.Cache.TTL < 1 {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}

	if config.Collection.IntervalSeconds < 1 {
		return fmt.Errorf("collection interval must be at least 1 second")
	}

	if config.Collection.SeriesCapacity < 10 {
		return fmt.Errorf("series capacity must be at least 10, got %d", config.Collection.SeriesCapacity)
	}

	if config.Alerting.SimilarityThreshold < 0 || config.Alerting.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be between 0 and 1")
	}

	if config.Alerting.MinConfidence < 0 || config.Alerting.MinConfidence > 1 {
		return fmt.Errorf("minimum confidence must be between 0 and 1")
	}

	if config.Alerting.AggregationWindowMinutes < 1 {
		return fmt.Errorf("aggregation window must be at least 1 minute")
	}

	for impactType, weight := range config.Alerting.BusinessImpact {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("business impact for %s must be between 0 and 1", impactType)
		}
	}

	for metricType, t := range config.Thresholds {
		if t.RangeMin > t.RangeMax {
			return fmt.Errorf("threshold %s: range_min exceeds range_max", metricType)
		}
		if t.BaseThreshold < t.RangeMin || t.BaseThreshold > t.RangeMax {
			return fmt.Errorf("threshold %s: base threshold outside adaptive range", metricType)
		}
		if t.LearningWindowHours < 1 {
			return fmt.Errorf("threshold %s: learning window must be at least 1 hour", metricType)
		}
	}

	for metric, band := range config.Baselines {
		switch band.Polarity {
		case "", "lower_is_better", "higher_is_better":
		default:
			return fmt.Errorf("baseline %s: invalid polarity %q", metric, band.Polarity)
		}
	}

	for _, target := range config.SLATargets {
		if target.Direction != "at_least" && target.Direction != "at_most" {
			return fmt.Errorf("sla target %s: invalid direction %q", target.Name, target.Direction)
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
