package models

import "time"

// Baseline grades for a single assessed metric.
const (
	GradeExcellent  = "excellent"
	GradeGood       = "good"
	GradeAcceptable = "acceptable"
	GradePoor       = "poor"
	GradeUnknown    = "unknown"
)

// Polarity states which direction of a metric is "better". Error rates and
// latencies improve downward, throughput-like metrics improve upward.
type Polarity string

const (
	LowerIsBetter  Polarity = "lower_is_better"
	HigherIsBetter Polarity = "higher_is_better"
)

// BaselineBand holds the tiered quality thresholds for one metric. The
// implicit fourth tier ("poor") is anything worse than Acceptable.
type BaselineBand struct {
	Excellent  float64  `mapstructure:"excellent" yaml:"excellent" json:"excellent"`
	Good       float64  `mapstructure:"good" yaml:"good" json:"good"`
	Acceptable float64  `mapstructure:"acceptable" yaml:"acceptable" json:"acceptable"`
	Polarity   Polarity `mapstructure:"polarity" yaml:"polarity" json:"polarity"`
}

// MetricAssessment scores one metric against its baseline band.
type MetricAssessment struct {
	Metric       string  `json:"metric"`
	CurrentValue float64 `json:"current_value"`
	Score        float64 `json:"score"` // always within [0,1]
	Grade        string  `json:"grade"`
}

// BaselineAssessment is the per-metric scoring plus the weighted overall
// score and letter grade.
type BaselineAssessment struct {
	Metrics      map[string]MetricAssessment `json:"metrics"`
	OverallScore float64                     `json:"overall_score"`
	Grade        string                      `json:"grade"` // A+, A, B, C, D
	Timestamp    time.Time                   `json:"timestamp"`
}

// ComparisonDirection states which side of an SLA target is compliant.
type ComparisonDirection string

const (
	AtLeast ComparisonDirection = "at_least" // current >= target
	AtMost  ComparisonDirection = "at_most"  // current <= target
)

// SLATarget is one committed service-level value checked each analysis.
type SLATarget struct {
	Name      string              `mapstructure:"name" yaml:"name" json:"name"`
	Metric    string              `mapstructure:"metric" yaml:"metric" json:"metric"`
	Target    float64             `mapstructure:"target" yaml:"target" json:"target"`
	Direction ComparisonDirection `mapstructure:"direction" yaml:"direction" json:"direction"`
}

// SLATargetResult is per-target compliance with signed deviation.
type SLATargetResult struct {
	Name      string  `json:"name"`
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Compliant bool    `json:"compliant"`
	Deviation float64 `json:"deviation"`
}

// SLAComplianceResult aggregates per-target compliance into a percentage
// and grade.
type SLAComplianceResult struct {
	Targets       []SLATargetResult `json:"targets"`
	CompliancePct float64           `json:"compliance_pct"`
	Grade         string            `json:"grade"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Trend directions over a short analysis window.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDegrading = "degrading"
)

// TrendAnalysis is the short-window direction and strength of one metric.
type TrendAnalysis struct {
	Metric      string  `json:"metric"`
	Direction   string  `json:"direction"`
	Slope       float64 `json:"slope"`
	Strength    float64 `json:"strength"` // 0..1
	SampleCount int     `json:"sample_count"`
}

// Risk levels from the composite 0-100 risk score.
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
	RiskUnknown  = "unknown"
)

// Risk assessment statuses. InsufficientData is a first-class result for
// histories shorter than the statistical minimum, never an error.
const (
	RiskStatusOK               = "ok"
	RiskStatusInsufficientData = "insufficient_data"
)

// RiskAssessment is the predictive engine's forward-looking verdict for one
// metric.
type RiskAssessment struct {
	MetricName       string     `json:"metric_name"`
	Status           string     `json:"status"`
	RiskScore        float64    `json:"risk_score"` // 0..100, additive
	RiskLevel        string     `json:"risk_level"`
	RiskFactors      []string   `json:"risk_factors"`
	PredictedBreach  *time.Time `json:"predicted_breach,omitempty"`
	PeriodsToBreach  int        `json:"periods_to_breach,omitempty"` // 0 = none within horizon
	Confidence       float64    `json:"confidence"`
	ForecastedValues []float64  `json:"forecasted_values"`
	OutlierRate      float64    `json:"outlier_rate"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

// CapacityHorizon is one projected utilization point.
type CapacityHorizon struct {
	Months               int     `json:"months"`
	ProjectedUtilization float64 `json:"projected_utilization"`
	RiskLevel            string  `json:"risk_level"`
	ExceedsWarning       bool    `json:"exceeds_warning"`
}

// CapacityProjection projects resource utilization at fixed horizons given
// an assumed growth rate blended with the recent trend.
type CapacityProjection struct {
	MetricName         string            `json:"metric_name"`
	Status             string            `json:"status"`
	CurrentUtilization float64           `json:"current_utilization"`
	GrowthRatePct      float64           `json:"growth_rate_pct"`
	AdjustedGrowthPct  float64           `json:"adjusted_growth_pct"`
	WarningLinePct     float64           `json:"warning_line_pct"`
	Horizons           []CapacityHorizon `json:"horizons"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

// ComprehensiveAnalysis bundles everything the analyzer produces for one
// window: baseline scoring, SLA compliance, trends, risks and the derived
// recommendations.
type ComprehensiveAnalysis struct {
	Timestamp       time.Time            `json:"timestamp"`
	WindowHours     int                  `json:"window_hours"`
	Snapshot        *PerformanceSnapshot `json:"snapshot"`
	Baseline        *BaselineAssessment  `json:"baseline"`
	SLA             *SLAComplianceResult `json:"sla"`
	Trends          []TrendAnalysis      `json:"trends"`
	Risks           []RiskAssessment     `json:"risks"`
	Recommendations []string             `json:"recommendations"`
}
