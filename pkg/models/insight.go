package models

import "time"

// InsightType classifies the pattern an insight describes.
type InsightType string

const (
	InsightFailureSpike      InsightType = "failure_spike"
	InsightSuccessCluster    InsightType = "success_cluster"
	InsightCostOutlier       InsightType = "cost_outlier"
	InsightLatencyBottleneck InsightType = "latency_bottleneck"
)

// InsightSeverity orders insights for review.
type InsightSeverity string

const (
	SeverityLow      InsightSeverity = "low"
	SeverityMedium   InsightSeverity = "medium"
	SeverityHigh     InsightSeverity = "high"
	SeverityCritical InsightSeverity = "critical"
)

// Rank maps severity onto a sortable scale.
func (s InsightSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Insight is a derived, read-only artifact of trace analysis. It never
// mutates agent configuration directly.
type Insight struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	Type            InsightType     `json:"type"`
	Severity        InsightSeverity `json:"severity"`
	Confidence      float64         `json:"confidence"`
	Impact          string          `json:"impact"`
	Evidence        []string        `json:"evidence,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
