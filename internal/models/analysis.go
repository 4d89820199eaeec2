package models

import "time"

// Severity grades a warning.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// rank orders severities for comparison.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// Priority grades a recommendation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// rank orders priorities for comparison.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Above reports whether p outranks other.
func (p Priority) Above(other Priority) bool {
	return p.rank() > other.rank()
}

// Direction is the sign of a correlation or trend.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// Trend classifies a metric's recent movement.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Timeframe tags a prediction horizon.
type Timeframe string

const (
	TimeframeNext3Days  Timeframe = "next_3_days"
	TimeframeNext7Days  Timeframe = "next_7_days"
	TimeframeNext14Days Timeframe = "next_14_days"
)

// Insight is one correlation finding between two metric kinds.
// Confidence is a design heuristic monotonic in sample size and effect
// magnitude, not a statistical p-value.
type Insight struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	KindA       MetricKind `json:"kind_a"`
	KindB       MetricKind `json:"kind_b"`
	Correlation float64    `json:"correlation"` // Pearson r in [-1, 1]
	Confidence  float64    `json:"confidence"`  // heuristic, in [0, 1]
	SampleSize  int        `json:"sample_size"`
	LagDays     int        `json:"lag_days"` // 0 = same day, 1 = yesterday's A vs today's B
	Direction   Direction  `json:"direction"`
}

// Warning is a sustained-deviation anomaly finding for one metric kind.
type Warning struct {
	ID             string     `json:"id"`
	Kind           MetricKind `json:"kind"`
	Severity       Severity   `json:"severity"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Recommendation string     `json:"recommendation"`
	RunLength      int        `json:"run_length"`     // consecutive deviating days
	DeviationSigma float64    `json:"deviation_sigma"` // mean deviation in baseline stddevs
	Elevated       bool       `json:"elevated"`        // true above baseline, false below
}

// Recommendation is one actionable suggestion derived from a detected
// pattern.
type Recommendation struct {
	Kind     string   `json:"kind"`
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Action   string   `json:"action"`
	Reason   string   `json:"reason"`
	Impact   string   `json:"impact"`
}

// Prediction is a short-horizon trend forecast for one metric kind.
type Prediction struct {
	Kind       MetricKind `json:"kind"`
	Timeframe  Timeframe  `json:"timeframe"`
	Confidence float64    `json:"confidence"`
	Title      string     `json:"title"`
	Prediction string     `json:"prediction"`
	Impact     string     `json:"impact"`
	Prevention string     `json:"prevention"`
	Trend      Trend      `json:"trend"`
	Slope      float64    `json:"slope"` // per-day change over the trailing window
}

// AnalysisResult bundles everything a single analysis pass produced.
type AnalysisResult struct {
	Insights        []Insight        `json:"insights"`
	Warnings        []Warning        `json:"warnings"`
	Recommendations []Recommendation `json:"recommendations"`
	Predictions     []Prediction     `json:"predictions"`
	ComputedAt      time.Time        `json:"computed_at"`
}

// HealthStory is the heuristic narrative chaining the top warning and top
// insight. Not causal inference; the chain is a shared-metric-kind join.
type HealthStory struct {
	Title          string   `json:"title"`
	Narrative      string   `json:"narrative"`
	KeyConnections []string `json:"key_connections"`
	ActionPriority string   `json:"action_priority"`
}
